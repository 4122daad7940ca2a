package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"studystake/internal/apperrors"
)

// JSONResponse sends a JSON response and ensures slices are never null
//
// IMPORTANT: This helper solves a common Go/JSON issue where nil slices are encoded as "null"
// instead of "[]". This causes problems in TypeScript/JavaScript frontends that expect arrays.
//
// Always use this function instead of json.NewEncoder(w).Encode() to avoid null slice issues.
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalized)
}

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		elem := v.Elem()

		// Special case: *time.Time should not be recursively processed
		if elem.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}

		normalized := normalizeSlices(elem.Interface())
		result := reflect.New(elem.Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()
	}

	if v.Kind() == reflect.Slice {
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}

		result := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			normalized := normalizeSlices(v.Index(i).Interface())
			result.Index(i).Set(reflect.ValueOf(normalized))
		}
		return result.Interface()
	}

	if v.Kind() == reflect.Struct {
		if v.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}

		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			structField := v.Type().Field(i)

			if !field.CanInterface() {
				continue
			}

			fieldType := field.Type()
			if fieldType == reflect.TypeOf(time.Time{}) ||
				(fieldType.Kind() == reflect.Ptr && fieldType.Elem() == reflect.TypeOf(time.Time{})) {
				if result.Field(i).CanSet() && structField.IsExported() {
					result.Field(i).Set(field)
				}
			} else if field.Kind() == reflect.Slice || field.Kind() == reflect.Ptr || field.Kind() == reflect.Struct {
				normalized := normalizeSlices(field.Interface())
				if result.Field(i).CanSet() {
					result.Field(i).Set(reflect.ValueOf(normalized))
				}
			} else {
				if result.Field(i).CanSet() && structField.IsExported() {
					result.Field(i).Set(field)
				}
			}
		}
		return result.Interface()
	}

	return data
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondWithAppError maps a service-layer error onto the HTTP status space
func respondWithAppError(w http.ResponseWriter, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidArgument:
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.KindNotFound:
		respondWithError(w, http.StatusNotFound, err.Error())
	case apperrors.KindConflict:
		respondWithError(w, http.StatusConflict, err.Error())
	case apperrors.KindInsufficientFunds:
		respondWithError(w, http.StatusPaymentRequired, err.Error())
	case apperrors.KindOracleUnavailable:
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// extractPathID parses the numeric segment following prefix in path,
// e.g. extractPathID("/api/v1/reviews/42/vote", "/api/v1/reviews/") == 42
func extractPathID(path, prefix string) (uint, error) {
	rest := strings.TrimPrefix(path, prefix)
	segment := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		segment = rest[:idx]
	}
	id, err := strconv.ParseUint(segment, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
