package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arewsa/chat-for-deepruta/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Usar o nome do campo JSON nas mensagens de erro
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeChatRequest valida o corpo do POST /api/chat campo a campo, para
// reportar todos os problemas de uma vez no formato das respostas 422.
func decodeChatRequest(data []byte) (model.ChatRequest, []model.ValidationIssue) {
	var req model.ChatRequest

	if len(bytes.TrimSpace(data)) == 0 {
		return req, []model.ValidationIssue{{Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing"}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, []model.ValidationIssue{{Loc: []string{"body"}, Msg: "value is not a valid dict", Type: "type_error.dict"}}
		}
		return req, []model.ValidationIssue{{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error(), Type: "value_error.jsondecode"}}
	}

	fields := []struct {
		name string
		dst  **string
	}{
		{"message", &req.Message},
		{"chatId", &req.ChatID},
	}

	issues := map[string]model.ValidationIssue{}
	for _, f := range fields {
		value, ok := raw[f.name]
		if !ok || string(value) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			issues[f.name] = model.ValidationIssue{
				Loc:  []string{"body", f.name},
				Msg:  "str type expected",
				Type: "type_error.str",
			}
			continue
		}
		*f.dst = &s
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return req, []model.ValidationIssue{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
		}
		for _, fe := range verrs {
			if _, mistyped := issues[fe.Field()]; mistyped {
				continue
			}
			issues[fe.Field()] = model.ValidationIssue{
				Loc:  []string{"body", fe.Field()},
				Msg:  "field required",
				Type: "value_error.missing",
			}
		}
	}

	var out []model.ValidationIssue
	for _, f := range fields {
		if issue, ok := issues[f.name]; ok {
			out = append(out, issue)
		}
	}
	return req, out
}
