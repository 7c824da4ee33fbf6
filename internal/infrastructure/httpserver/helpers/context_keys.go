package helpers

import (
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	keyOrgID ctxKey = "org_id"
)

func SetOrgID(c echo.Context, id string) { c.Set(string(keyOrgID), id) }
func GetOrgIDRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyOrgID))
	id, ok := v.(string)
	return id, ok
}
