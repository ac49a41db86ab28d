package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyMsg:   "action",
			logrus.FieldKeyLevel: "level",
		},
	})
	return l
}

// SetOutput redirects every subsequent entry to w.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Logger exposes the underlying logger for non-request code paths.
func Logger() *logrus.Logger { return logger }

func entry(c *fiber.Ctx, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(logger)
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	if c == nil {
		return e
	}
	f := logrus.Fields{
		"ip":     c.IP(),
		"method": c.Method(),
		"path":   c.Path(),
	}
	if st := c.Response().StatusCode(); st != 0 {
		f["status"] = st
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		f["req_id"] = rid
	}
	if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
		f["user_id"] = uid
	}
	return e.WithFields(f)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { entry(c, fields).Info(action) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).WithField("audit", true).Info(action)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).Warn(action)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	entry(c, fields).WithError(err).Error(action)
}
