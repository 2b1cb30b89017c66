package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementValidate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	require.NoError(t, NewDepositStatement(a, dec("1"), "", now).Validate())
	require.NoError(t, NewWithdrawStatement(a, dec("1"), "", now).Validate())
	require.NoError(t, NewTransferStatement(a, b, dec("1"), "", now).Validate())

	t.Run("no accounts", func(t *testing.T) {
		s := Statement{Type: TransactionTypeDeposit, Category: CategoryDeposit, Amount: dec("1")}
		assert.Error(t, s.Validate())
	})

	t.Run("transfer to itself", func(t *testing.T) {
		assert.Error(t, NewTransferStatement(a, a, dec("1"), "", now).Validate())
	})

	t.Run("transfer missing destination", func(t *testing.T) {
		s := NewTransferStatement(a, b, dec("1"), "", now)
		s.DestinationAccountID = nil
		assert.Error(t, s.Validate())
	})

	t.Run("bad enums", func(t *testing.T) {
		s := NewDepositStatement(a, dec("1"), "", now)
		s.Type = "CREDIT"
		assert.Error(t, s.Validate())

		s = NewDepositStatement(a, dec("1"), "", now)
		s.Category = "GIFT"
		assert.Error(t, s.Validate())
	})

	t.Run("bad amount", func(t *testing.T) {
		assert.Error(t, NewDepositStatement(a, dec("0"), "", now).Validate())
		assert.Error(t, NewDepositStatement(a, dec("0.123"), "", now).Validate())
	})

	t.Run("text too long", func(t *testing.T) {
		s := NewDepositStatement(a, dec("1"), strings.Repeat("x", MaxDescriptionLength+1), now)
		assert.Error(t, s.Validate())

		s = NewDepositStatement(a, dec("1"), "", now)
		s.ExternalReference = strings.Repeat("x", MaxExternalReferenceLength+1)
		assert.Error(t, s.Validate())
	})
}

func TestValidateStatementTextCountsCharacters(t *testing.T) {
	assert.NoError(t, ValidateStatementText(strings.Repeat("ç", MaxDescriptionLength), strings.Repeat("ü", MaxExternalReferenceLength)))
	assert.Error(t, ValidateStatementText(strings.Repeat("ç", MaxDescriptionLength+1), ""))
	assert.Error(t, ValidateStatementText("", strings.Repeat("ü", MaxExternalReferenceLength+1)))
}

func TestStatementTouches(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	s := NewTransferStatement(a, b, dec("1"), "", time.Now())

	assert.True(t, s.Touches(a))
	assert.True(t, s.Touches(b))
	assert.False(t, s.Touches(c))
	assert.NotNil(t, s.ProcessedAt)
}
