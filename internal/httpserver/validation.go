package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name,omitempty" jsonschema:"maxLength=200"`
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password"`
}

// requestValidator checks a decoded JSON body against a schema reflected
// from the request struct.
type requestValidator struct {
	schema  *jschema.Schema
	printer *message.Printer
}

func newRequestValidator(name string, v any) (*requestValidator, error) {
	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		Anonymous:                 true,
	}
	raw, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s schema: %w", name, err)
	}

	c := jschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &requestValidator{schema: sch, printer: message.NewPrinter(language.English)}, nil
}

// validate returns the field problems in body, or nil when it conforms.
func (v *requestValidator) validate(body any) []fieldError {
	err := v.schema.Validate(body)
	if err == nil {
		return nil
	}
	var verr *jschema.ValidationError
	if !errors.As(err, &verr) {
		return []fieldError{{Field: "body", Message: err.Error()}}
	}

	var details []fieldError
	v.collect(verr, &details)
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].Field != details[j].Field {
			return details[i].Field < details[j].Field
		}
		return details[i].Message < details[j].Message
	})
	return details
}

func (v *requestValidator) collect(verr *jschema.ValidationError, out *[]fieldError) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			v.collect(cause, out)
		}
		return
	}

	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, missing := range req.Missing {
			*out = append(*out, fieldError{Field: fieldPath(verr.InstanceLocation, missing), Message: "is required"})
		}
		return
	}
	*out = append(*out, fieldError{
		Field:   fieldPath(verr.InstanceLocation),
		Message: verr.ErrorKind.LocalizedString(v.printer),
	})
}

func fieldPath(location []string, extra ...string) string {
	parts := append(append([]string(nil), location...), extra...)
	if len(parts) == 0 {
		return "body"
	}
	return strings.Join(parts, ".")
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errMalformed    = errors.New("invalid JSON payload")
)

// decodeBody reads r's body, validates it and decodes it into dst. The
// returned details are non-nil when the body parsed but did not conform.
func decodeBody(w http.ResponseWriter, r *http.Request, v *requestValidator, dst any) ([]fieldError, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, errMalformed
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errMalformed
	}
	if details := v.validate(doc); len(details) > 0 {
		return details, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, errMalformed
	}
	return nil, nil
}
