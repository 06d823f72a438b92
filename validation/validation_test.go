package validation

import (
	"testing"

	"eshop/apperr"

	"github.com/stretchr/testify/require"
)

type address struct {
	City     string `json:"city" validate:"required,min=2,max=50"`
	PostCode string `json:"postCode" validate:"required,min=5,max=10"`
}

type signUp struct {
	Name            string   `json:"name" validate:"required,min=3"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=6"`
	PasswordConfirm string   `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Phone           string   `json:"phone" validate:"omitempty,mobile"`
	Price           float64  `json:"price" validate:"gte=1,lte=100000"`
	Discount        *float64 `json:"priceAfterDiscount" validate:"omitempty,ltfield=Price"`
	Address         address  `json:"shippingAddress"`
}

func valid() signUp {
	return signUp{
		Name:            "Mona",
		Email:           "mona@example.com",
		Password:        "secret1",
		PasswordConfirm: "secret1",
		Phone:           "01012345678",
		Price:           10,
		Address:         address{City: "Cairo", PostCode: "11511"},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.Status)
	return appErr.Fields
}

func TestStruct_Valid(t *testing.T) {
	in := valid()
	require.NoError(t, Struct(&in))

	in.Phone = "+966512345678"
	require.NoError(t, Struct(&in))
}

func TestStruct_FieldMessages(t *testing.T) {
	discount := 20.0
	in := valid()
	in.Name = "Al"
	in.Email = "not-an-email"
	in.PasswordConfirm = "other"
	in.Phone = "12345"
	in.Price = 0
	in.Discount = &discount
	in.Address.City = ""

	fields := fieldsOf(t, Struct(&in))

	require.Equal(t, "name must be at least 3 characters", fields["name"])
	require.Equal(t, "Invalid email address", fields["email"])
	require.Equal(t, "Password Confirmation incorrect", fields["passwordConfirm"])
	require.Equal(t, "Invalid phone number! Only Egyptian and Saudi numbers are accepted.", fields["phone"])
	require.Equal(t, "price must be greater than or equal to 1", fields["price"])
	require.Equal(t, "priceAfterDiscount must be lower than price", fields["priceAfterDiscount"])
	require.Equal(t, "shippingAddress.city is required", fields["shippingAddress.city"])
}
