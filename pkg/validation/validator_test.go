package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type productReq struct {
	Name  string `json:"name" validate:"required,productname"`
	Price int64  `json:"price" validate:"price"`
}

func TestToDetails_ValidationErrors(t *testing.T) {
	v := validator.New()
	Register(v)

	err := v.Struct(productReq{Name: "", Price: -1})
	details := ToDetails(err)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be between 0 and 1000000000", details["price"])

	assert.NoError(t, v.Struct(productReq{Name: "Lamp", Price: 0}))
}

func TestToDetails_JSONErrors(t *testing.T) {
	var req productReq
	err := json.Unmarshal([]byte(`{"name":`), &req)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"price":"cheap"}`), &req)
	assert.Equal(t, map[string]string{"price": "must be a int64"}, ToDetails(err))

	assert.Nil(t, ToDetails(nil))
}
