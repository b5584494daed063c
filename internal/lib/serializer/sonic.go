// Package serializer plugs bytedance/sonic into Echo's JSON handling.
package serializer

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// SonicSerializer implements echo.JSONSerializer with sonic in its
// encoding/json-compatible mode, so struct tags and json.Unmarshaler
// implementations behave as they do with the standard library.
type SonicSerializer struct {
	api sonic.API
}

// New returns a serializer using sonic.ConfigStd.
func New() *SonicSerializer {
	return &SonicSerializer{api: sonic.ConfigStd}
}

// Serialize writes i as JSON to the response.
func (s *SonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize decodes the request body into i. Any decoding failure is a
// client error.
func (s *SonicSerializer) Deserialize(c echo.Context, i any) error {
	err := s.api.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body is not valid JSON for this endpoint").SetInternal(err)
	}
	return nil
}
