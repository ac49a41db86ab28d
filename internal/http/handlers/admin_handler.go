package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/storage"
	"shopfront/internal/validate"
)

// ImageStore persists an uploaded image and returns its public URL. Delete
// takes a URL returned by Save.
type ImageStore interface {
	Save(name string, r io.Reader) (string, error)
	Delete(url string) error
}

type AdminHandler struct {
	Admin  *services.AdminService
	Images ImageStore
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Admin.Dashboard(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{"D": d})
}

// ---------- Products ----------

// GET /admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	f := services.AdminProductFilter{Page: validate.Page(c.Query("page"))}
	if id, ok := validate.ID(c.Query("category")); ok {
		f.CategoryID = id
	}
	if q, ok := validate.Q(c.Query("q")); ok {
		f.Search = q
	}
	page, err := h.Admin.ListProducts(c.UserContext(), f)
	if err != nil {
		return err
	}
	cats, err := h.Admin.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "admin_products", fiber.Map{"Page": page, "Categories": cats, "Q": f.Search, "CategoryID": f.CategoryID})
}

func (h *AdminHandler) productForm(c *fiber.Ctx, status int, p domain.Product, isNew bool, errMsg string) error {
	cats, err := h.Admin.ActiveCategories(c.UserContext())
	if err != nil {
		return err
	}
	return render(c.Status(status), "admin_product_form", fiber.Map{
		"P": p, "New": isNew, "Categories": cats, "Err": errMsg,
	})
}

// GET /admin/products/new
func (h *AdminHandler) NewProduct(c *fiber.Ctx) error {
	return h.productForm(c, fiber.StatusOK, domain.Product{Active: true}, true, "")
}

// GET /admin/products/:id/edit
func (h *AdminHandler) EditProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Product not found")
	}
	p, err := h.Admin.GetProduct(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "Product not found")
	}
	if err != nil {
		return err
	}
	return h.productForm(c, fiber.StatusOK, p, false, "")
}

// productInput reads the product form and reports every bad field in one
// message. The image is stored only once the fields are valid.
func (h *AdminHandler) productInput(c *fiber.Ctx) (services.ProductInput, string) {
	var in services.ProductInput
	var merr *multierror.Error
	check := func(ok bool, problem string) {
		if !ok {
			merr = multierror.Append(merr, errors.New(problem))
		}
	}
	var ok bool
	in.Name, ok = validate.Name(c.FormValue("name"), 200)
	check(ok, "Name is required (max 200 characters)")
	in.Description, ok = validate.Text(c.FormValue("description"), 2000)
	check(ok, "Description is too long")
	in.SKU, ok = validate.Text(c.FormValue("sku"), 50)
	check(ok, "SKU is too long")
	in.CategoryID, ok = validate.ID(c.FormValue("categoryId"))
	check(ok, "Choose a category")
	in.Price, ok = validate.Money(c.FormValue("price"))
	check(ok, "Enter a valid price")
	in.DiscountedPrice, ok = validate.OptionalMoney(c.FormValue("discountedPrice"))
	check(ok, "Enter a valid discounted price")
	in.StockQuantity, ok = validate.Stock(c.FormValue("stockQuantity"))
	check(ok, "Stock must be zero or more")
	in.Active = c.FormValue("active") != ""
	if merr != nil {
		merr.ErrorFormat = problemList
		return in, merr.Error()
	}

	fh, err := c.FormFile("image")
	if err != nil {
		// No upload; keep whatever image the product has.
		return in, ""
	}
	f, err := fh.Open()
	if err != nil {
		return in, "Could not read the uploaded image"
	}
	defer f.Close()
	url, err := h.Images.Save(fh.Filename, f)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return in, "Images must be .jpg, .jpeg, .png, .gif or .webp"
	}
	if err != nil {
		applog.Error(c, "admin.products.upload.fail", err, nil)
		return in, "Could not store the uploaded image"
	}
	in.ImageURL = url
	return in, ""
}

func problemList(es []error) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// discardUpload removes an image stored for a form the service then rejected.
func (h *AdminHandler) discardUpload(c *fiber.Ctx, in services.ProductInput) {
	if in.ImageURL == "" {
		return
	}
	if err := h.Images.Delete(in.ImageURL); err != nil {
		applog.Error(c, "admin.products.upload.cleanup.fail", err, map[string]any{"url": in.ImageURL})
	}
}

func draft(id string, in services.ProductInput) domain.Product {
	return domain.Product{
		ID: id, CategoryID: in.CategoryID, Name: in.Name, Description: in.Description, SKU: in.SKU,
		Price: in.Price, DiscountedPrice: in.DiscountedPrice, StockQuantity: in.StockQuantity,
		ImageURL: in.ImageURL, Active: in.Active,
	}
}

// POST /admin/products/new
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	in, problem := h.productInput(c)
	if problem != "" {
		return h.productForm(c, fiber.StatusBadRequest, draft("", in), true, problem)
	}
	p, err := h.Admin.CreateProduct(c.UserContext(), in)
	if err != nil {
		h.discardUpload(c, in)
		msg, known := userMessage(err)
		if !known {
			return err
		}
		return h.productForm(c, fiber.StatusBadRequest, draft("", in), true, msg)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return redirectWith(c, "/admin/products", flashOK, "Product created")
}

// POST /admin/products/:id/edit
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Product not found")
	}
	in, problem := h.productInput(c)
	if problem != "" {
		return h.productForm(c, fiber.StatusBadRequest, draft(id, in), false, problem)
	}
	if _, err := h.Admin.UpdateProduct(c.UserContext(), id, in); err != nil {
		h.discardUpload(c, in)
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, "Product not found")
		}
		msg, known := userMessage(err)
		if !known {
			return err
		}
		return h.productForm(c, fiber.StatusBadRequest, draft(id, in), false, msg)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return redirectWith(c, "/admin/products", flashOK, "Product updated")
}

// POST /admin/products/:id/delete
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Product not found")
	}
	if err := h.Admin.DeleteProduct(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return redirectWith(c, "/admin/products", flashErr, "Product not found")
		}
		return err
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return redirectWith(c, "/admin/products", flashOK, "Product deactivated")
}

// ---------- Categories ----------

// GET /admin/categories
func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Admin.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

// POST /admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	cat, err := h.Admin.CreateCategory(c.UserContext(), c.FormValue("name"), c.FormValue("description"))
	if err != nil {
		msg, known := userMessage(err)
		if !known {
			return err
		}
		applog.Security(c, "validation.fail", map[string]any{"form": "category", "reason": msg})
		return redirectWith(c, "/admin/categories", flashErr, msg)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return redirectWith(c, "/admin/categories", flashOK, "Category created")
}

// ---------- Orders ----------

// GET /admin/orders?status=&from=&to=&page=
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	f := services.OrderFilter{Page: validate.Page(c.Query("page"))}
	data := fiber.Map{"Statuses": domain.AllStatuses}
	if raw := c.Query("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			data["Err"] = "Unknown status"
		}
		f.Status = st
	}
	var okFrom, okTo bool
	f.From, okFrom = validate.Date(c.Query("from"))
	f.To, okTo = validate.Date(c.Query("to"))
	if !okFrom || !okTo {
		data["Err"] = "Dates must look like 2024-01-31"
	}
	page, err := h.Admin.ListOrders(c.UserContext(), f)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	data["Page"] = page
	data["Filter"] = f
	return render(c, "admin_orders", data)
}

// GET /admin/orders/:id
func (h *AdminHandler) Order(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Admin.GetOrder(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "Order not found")
	}
	if err != nil {
		return err
	}
	return render(c, "admin_order", fiber.Map{"Order": o, "Statuses": domain.AllStatuses})
}

// POST /admin/orders/:id/status answers JSON {success, message}.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if _, ok := validate.ID(id); !ok || status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing id or status"})
	}
	if err := h.Admin.UpdateOrderStatus(c.UserContext(), id, status); err != nil {
		msg, known := userMessage(err)
		if !known {
			applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": msg})
		}
		code := fiber.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrNotFound):
			code, msg = fiber.StatusNotFound, "Order not found"
		case errors.Is(err, services.ErrInvalidState):
			code = fiber.StatusConflict
		}
		applog.Info(c, "admin.orders.update.rejected", map[string]any{"order_id": id, "status": status, "reason": msg})
		return c.Status(code).JSON(fiber.Map{"success": false, "message": msg})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"success": true, "message": "Order status updated to " + status})
}
