package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out. On failure it writes the
// error response and returns false.
func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), nil)
	case errors.Is(err, io.EOF):
		RespondBadRequest(ctx, "Request body is required", gin.H{"json": "empty_body"})
	default:
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
	}
	return false
}

func bindErrorDetails(err error, out any) gin.H {
	root := structType(reflect.TypeOf(out))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   validatorFieldPath(root, fe),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax", "offset": syntaxErr.Offset}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := jsonPath(root, strings.Split(typeErr.Field, "."))
		if field == "" {
			field = typeErr.Field
		}
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

// validatorFieldPath turns "CreateRequest.StartDate" into "startDate".
func validatorFieldPath(root reflect.Type, fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if ns == "" {
		return fe.Field()
	}

	parts := strings.Split(ns, ".")
	if root != nil && len(parts) > 1 && parts[0] == root.Name() {
		parts = parts[1:]
	}
	if p := jsonPath(root, parts); p != "" {
		return p
	}
	return fe.Field()
}

// jsonPath maps Go field names to their json tags, keeping [i] suffixes.
func jsonPath(root reflect.Type, parts []string) string {
	out := make([]string, 0, len(parts))
	cur := root

	for _, part := range parts {
		if part == "" {
			continue
		}

		name, index, _ := strings.Cut(part, "[")
		if index != "" {
			index = "[" + index
		}

		jsonName := name
		var next reflect.Type
		if cur != nil {
			if sf, ok := cur.FieldByName(name); ok {
				jsonName = jsonTagName(sf)
				next = structType(sf.Type)
			}
		}

		out = append(out, jsonName+index)
		cur = next
	}
	return strings.Join(out, ".")
}

func jsonTagName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

// structType unwraps pointers, slices and arrays down to a struct type.
func structType(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
	return nil
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}
	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
