package data

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffcustomerID,tenure,Contract,TotalCharges,Churn\n" +
	"0001,1,Month-to-month,29.85,No\n" +
	"0002,0,Two year, ,No\n" +
	"0003,,One year,100.5,Yes\n" +
	"0004,12,NA,1200,Yes\n"

func TestReadCSVInfersKinds(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, frame.Rows())
	assert.Equal(t, []string{"customerID", "tenure", "Contract", "TotalCharges", "Churn"}, frame.Names())

	id, err := frame.Column("customerID")
	require.NoError(t, err)
	assert.Equal(t, Numeric, id.Kind, "leading BOM must be stripped and zero-padded ids read as numbers")

	tenure, err := frame.Column("tenure")
	require.NoError(t, err)
	assert.Equal(t, Numeric, tenure.Kind)
	assert.True(t, math.IsNaN(tenure.Numbers[2]))

	total, err := frame.Column("TotalCharges")
	require.NoError(t, err)
	assert.Equal(t, Categorical, total.Kind, "a blank cell keeps the column textual")
	assert.Equal(t, " ", total.Texts[1])
	assert.False(t, total.Nulls[1])

	contract, err := frame.Column("Contract")
	require.NoError(t, err)
	assert.True(t, contract.IsNull(3))
	assert.False(t, contract.IsNull(0))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Rows())
	assert.Equal(t, 2, frame.Width())
}
