package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertyType(t *testing.T) {
	got, err := ParsePropertyType(" rent ")
	require.NoError(t, err)
	assert.Equal(t, PropertyTypeRent, got)

	_, err = ParsePropertyType("LEASE")
	require.Error(t, err)
}

func TestPropertyStatus_Valid(t *testing.T) {
	assert.True(t, StatusRented.Valid())
	assert.False(t, PropertyStatus("GONE").Valid())
}

func TestProperty_ImagesOrderRoundTrips(t *testing.T) {
	raw := `{"id":7,"slug":"villa","title":"Villa","property_type":"BUY","status":"AVAILABLE",
		"city":"Tirupur","state":"Tamil Nadu","price":100,"bedrooms":3,"bathrooms":2,"area":1200,
		"images":[{"id":3,"url":"c","order":2},{"id":1,"url":"a","order":0},{"id":2,"url":"b","order":1}],
		"created_at":"2024-01-15T10:30:00Z"}`

	var p Property
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	b, err := json.Marshal(p)
	require.NoError(t, err)
	var again Property
	require.NoError(t, json.Unmarshal(b, &again))

	assert.Equal(t, p.Images, again.Images, "wire order is kept")

	sorted := p.SortedImages()
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{sorted[0].URL, sorted[1].URL, sorted[2].URL})
	assert.Equal(t, "c", p.Images[0].URL, "SortedImages must not reorder the record")
}

func TestProperty_DecodesMapLinks(t *testing.T) {
	raw := `{"id":7,"slug":"villa","title":"Villa","property_type":"BUY","status":"AVAILABLE",
		"city":"Tirupur","state":"Tamil Nadu","price":100,"images":[],"created_at":"2024-01-15T10:30:00Z",
		"gmap_url":"https://maps.example/villa","directions_url":"https://maps.example/dir/villa"}`

	var p Property
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.NotNil(t, p.GmapURL)
	require.NotNil(t, p.DirectionsURL)
	assert.Equal(t, "https://maps.example/villa", *p.GmapURL)
	assert.Equal(t, "https://maps.example/dir/villa", *p.DirectionsURL)

	var bare Property
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"images":[]}`), &bare))
	assert.Nil(t, bare.GmapURL)
}

func TestProperty_Location(t *testing.T) {
	addr, zip := "123 MG Road", "641601"
	p := Property{Address: &addr, City: "Tirupur", State: "Tamil Nadu", ZipCode: &zip}
	assert.Equal(t, "123 MG Road, Tirupur, Tamil Nadu 641601", p.Location())

	assert.Equal(t, "Tirupur, Tamil Nadu", Property{City: "Tirupur", State: "Tamil Nadu"}.Location())
}
