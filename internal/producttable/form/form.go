// Package form validates the add-product form and the edit dialog.
package form

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field keys used in FieldErrors.
const (
	FieldName  = "name"
	FieldPrice = "price"
	FieldStock = "stock"
)

const (
	MsgNameRequired  = "Name is required"
	MsgPricePositive = "Price must be positive"
	MsgStockNegative = "Stock cannot be negative"
	MsgPriceNumber   = "Price must be a number"
	MsgStockWhole    = "Stock must be a whole number"
)

// ErrEditAbandoned is returned by ValidateEdit when a field was left empty.
var ErrEditAbandoned = errors.New("edit abandoned")

// Input holds the raw text of the three form fields.
type Input struct {
	Name  string
	Price string
	Stock string
}

// Values are the parsed, valid field values.
type Values struct {
	Name  string  `form:"name" validate:"required"`
	Price float64 `form:"price" validate:"gt=0"`
	Stock int     `form:"stock" validate:"gte=0"`
}

// FieldErrors maps a field key to its message. Empty means valid.
type FieldErrors map[string]string

var messages = map[string]string{
	FieldName + ".required": MsgNameRequired,
	FieldPrice + ".gt":      MsgPricePositive,
	FieldStock + ".gte":     MsgStockNegative,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// Validate parses and checks the creation form. Values are meaningful only
// when the returned FieldErrors is empty.
func Validate(in Input) (Values, FieldErrors) {
	errs := FieldErrors{}
	vals := Values{Name: in.Name}

	price, err := parsePrice(in.Price)
	if err != nil {
		errs[FieldPrice] = MsgPriceNumber
	}
	vals.Price = price

	stock, err := strconv.Atoi(strings.TrimSpace(in.Stock))
	if err != nil {
		errs[FieldStock] = MsgStockWhole
	}
	vals.Stock = stock

	var verrs validator.ValidationErrors
	if err := validate.Struct(vals); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, parseFailed := errs[fe.Field()]; parseFailed {
				continue
			}
			if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
				errs[fe.Field()] = msg
			}
		}
	}
	return vals, errs
}

// ValidateEdit checks an edit dialog draft. Any empty field abandons the
// whole edit with ErrEditAbandoned; otherwise the creation rules apply.
func ValidateEdit(in Input) (Values, FieldErrors, error) {
	if in.Name == "" || strings.TrimSpace(in.Price) == "" || strings.TrimSpace(in.Stock) == "" {
		return Values{}, nil, ErrEditAbandoned
	}
	vals, errs := Validate(in)
	return vals, errs, nil
}

// DraftFor seeds an edit draft with the current values of a record.
func DraftFor(name string, price float64, stock int) Input {
	return Input{
		Name:  name,
		Price: FormatPrice(price),
		Stock: strconv.Itoa(stock),
	}
}

// FormatPrice renders a price with the fewest digits that round-trip.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, strconv.ErrSyntax
	}
	return price, nil
}
