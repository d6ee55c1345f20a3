package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shipping struct {
	RecipientName string    `json:"recipientName" validate:"notblank"`
	Zipcode       string    `json:"zipcode" validate:"required,max=10"`
	ProductID     uuid.UUID `json:"productId" validate:"uuid_required"`
}

func TestValidateStructPasses(t *testing.T) {
	errs := ValidateStruct(&shipping{RecipientName: "Kim", Zipcode: "06236", ProductID: uuid.New()})
	assert.Empty(t, errs)
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	errs := ValidateStruct(&shipping{RecipientName: "   ", Zipcode: "", ProductID: uuid.Nil})
	require.Len(t, errs, 3)

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.FailedField] = e.Tag
	}
	assert.Equal(t, "notblank", fields["recipientName"])
	assert.Equal(t, "required", fields["zipcode"])
	assert.Equal(t, "uuid_required", fields["productId"])
}

func TestValidateStructParam(t *testing.T) {
	errs := ValidateStruct(&shipping{RecipientName: "Kim", Zipcode: "12345678901", ProductID: uuid.New()})
	require.Len(t, errs, 1)
	assert.Equal(t, "max", errs[0].Tag)
	assert.Equal(t, "10", errs[0].Value)
}
