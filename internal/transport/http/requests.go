package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/pkg/apperror"
)

var validate = validator.New()

func init() {
	// в сообщениях об ошибках используем имена полей из JSON
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type workoutRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Public      bool    `json:"public"`
}

type exerciseRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Muscles     []string `json:"muscles" validate:"omitempty,dive,required,max=64"`
}

type addWorkoutExerciseRequest struct {
	ExerciseID string  `json:"exerciseId" validate:"required,uuid"`
	Order      *int    `json:"order" validate:"omitempty,min=-2147483648,max=2147483647"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

type updateWorkoutExerciseRequest struct {
	Order *int    `json:"order" validate:"omitempty,min=-2147483648,max=2147483647"`
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

type setRequest struct {
	Reps   int     `json:"reps" validate:"min=0"`
	Weight float64 `json:"weight" validate:"min=0"`
	Drops  int     `json:"drops" validate:"min=0"`
	Order  *int    `json:"order" validate:"omitempty,min=-2147483648,max=2147483647"`
}

type reorderItem struct {
	ID    string `json:"id" validate:"required,uuid"`
	Order *int   `json:"order" validate:"required,min=-2147483648,max=2147483647"`
}

// reorderRequest тело запроса на перестановку
// Дробное или строковое значение order отклоняется уже при декодировании JSON,
// значение вне диапазона колонки INTEGER отклоняет валидатор
type reorderRequest struct {
	Items []reorderItem `json:"items" validate:"required,min=1,dive"`
}

// updates переводит провалидированный запрос в доменные обновления позиций
func (r reorderRequest) updates() []model.OrderUpdate {
	out := make([]model.OrderUpdate, len(r.Items))
	for i, it := range r.Items {
		out[i] = model.OrderUpdate{ID: uuid.MustParse(it.ID), Order: *it.Order}
	}
	return out
}

// decodeAndValidate декодирует JSON тело в dst и проверяет теги validate
// Любая ошибка возвращается как ошибка валидации
func decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Validation("invalid request body").WithDetail("body", decodeReason(err))
	}
	return validateStruct(dst)
}

func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(err.Error())
	}
	appErr := apperror.Validation("request validation failed")
	for _, fe := range verrs {
		appErr.WithDetail(fieldPath(fe), formatFieldError(fe))
	}
	return appErr
}

// fieldPath возвращает путь поля без имени корневой структуры: items[1].order
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid uuid"
	default:
		return "is invalid"
	}
}

// listQuery параметры пагинации skip/take
type listQuery struct {
	Skip int `validate:"min=0"`
	Take int `validate:"min=1,max=100"`
}

// parseListQuery читает skip и take из query (по умолчанию 0 и 10)
func parseListQuery(r *http.Request) (listQuery, error) {
	q := listQuery{Skip: 0, Take: 10}
	for name, dst := range map[string]*int{"skip": &q.Skip, "take": &q.Take} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, apperror.Validation("invalid pagination").WithDetail(name, "must be an integer")
		}
		*dst = n
	}
	if err := validate.Struct(q); err != nil {
		return q, apperror.Validation("invalid pagination").WithDetail("range", "skip must be >= 0, take must be in [1, 100]")
	}
	return q, nil
}
