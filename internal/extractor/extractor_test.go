package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
)

func extract(t *testing.T, ocrText string) core.JobResultSubmission {
	t.Helper()
	sub, err := NewHeuristic().Extract(context.Background(), &core.ReceiptUpload{
		MerchantName: "Fresh Market",
		OCRText:      ocrText,
	})
	require.NoError(t, err)
	return sub
}

func TestHeuristicParsesCommonShapes(t *testing.T) {
	sub := extract(t, "Jasmine Rice 2kg  8.99\nTomato x4  3.20\nMilk 1l\nTOTAL 12.19")

	require.Len(t, sub.Items, 3)

	rice := sub.Items[0]
	assert.Equal(t, "Jasmine Rice", rice.RawName)
	assert.Equal(t, 2.0, rice.Quantity)
	assert.Equal(t, core.UnitKg, rice.Unit)
	assert.Equal(t, core.CategoryGrain, rice.Category)
	require.NotNil(t, rice.UnitPrice)
	assert.Equal(t, 8.99, *rice.UnitPrice)

	tomato := sub.Items[1]
	assert.Equal(t, 4.0, tomato.Quantity)
	assert.Equal(t, core.UnitCount, tomato.Unit)
	assert.Equal(t, core.CategoryProduce, tomato.Category)

	milk := sub.Items[2]
	assert.Equal(t, 1.0, milk.Quantity)
	assert.Equal(t, core.UnitL, milk.Unit)
	assert.Equal(t, core.CategoryDairy, milk.Category)
	assert.Nil(t, milk.UnitPrice)
}

func TestHeuristicSkipsReceiptChrome(t *testing.T) {
	sub := extract(t, "Eggs x12\nSUBTOTAL 4.00\nTAX 0.40\nVISA ****1234\nCHANGE 0.00\nThank you!")
	require.Len(t, sub.Items, 1)
	assert.Equal(t, "Eggs", sub.Items[0].RawName)
}

func TestHeuristicDecimalCommaPrice(t *testing.T) {
	sub := extract(t, "Butter 250g  2,49")
	require.Len(t, sub.Items, 1)
	require.NotNil(t, sub.Items[0].UnitPrice)
	assert.Equal(t, 2.49, *sub.Items[0].UnitPrice)
	assert.Equal(t, 250.0, sub.Items[0].Quantity)
	assert.Equal(t, core.UnitG, sub.Items[0].Unit)
}

func TestHeuristicRequiresOCRText(t *testing.T) {
	_, err := NewHeuristic().Extract(context.Background(), &core.ReceiptUpload{})
	assert.Error(t, err)
}

func TestHeuristicNoRecognizableItems(t *testing.T) {
	_, err := NewHeuristic().Extract(context.Background(), &core.ReceiptUpload{
		OCRText: "TOTAL 0.00\nTAX 0.00\n====",
	})
	assert.Error(t, err)
}

func TestGuessCategoryFirstMatchWins(t *testing.T) {
	assert.Equal(t, core.CategoryFrozen, guessCategory("Frozen Pizza"))
	assert.Equal(t, core.CategoryDairy, guessCategory("Whole Milk"))
	assert.Equal(t, core.CategoryProtein, guessCategory("Chicken Breast"))
	assert.Equal(t, core.CategoryOther, guessCategory("Mystery Box Special"))
}
