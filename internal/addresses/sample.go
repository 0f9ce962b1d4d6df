package addresses

import (
	"fmt"
	"strconv"
)

var (
	sampleStreets       = []string{"MAIN ST", "OAK AVE", "PINE ST", "MAPLE DR", "CEDAR LN", "BEACH BLVD", "CENTRAL AVE"}
	samplePropertyTypes = []string{"Single Family", "Condominium", "Duplex", "Apartment", "Townhouse"}
)

const (
	sampleBaseLat = 27.77
	sampleBaseLng = -82.64
	sampleMax     = 20
)

// Sample generates a deterministic demo walk list for a precinct. Numeric
// precinct ids get up to twice their value in addresses, capped at 20.
func Sample(precinctID string) []Address {
	n := sampleMax
	if v, err := strconv.Atoi(precinctID); err == nil && v*2 < n {
		n = max(v*2, 0)
	}

	out := make([]Address, 0, n)
	for i := 0; i < n; i++ {
		street := sampleStreets[i%len(sampleStreets)]
		num := strconv.Itoa(100 + i*10)

		a := Address{
			ID:            fmt.Sprintf("%s-%d", precinctID, i+1),
			PrecinctID:    precinctID,
			Owner1:        fmt.Sprintf("SMITH, JOHN %d", i),
			Address:       num + " " + street,
			CityZip:       "ST PETERSBURG, FL 33701",
			StreetNumber:  num,
			StreetName:    street,
			ZipCode:       "33701",
			PropertyType:  samplePropertyTypes[i%len(samplePropertyTypes)],
			OwnerOccupied: i%2 == 0,
			Latitude:      sampleBaseLat + float64(i%10)*0.001,
			Longitude:     sampleBaseLng + float64(i%5)*0.001,
			HasLocation:   true,
		}
		if i%3 == 0 {
			a.Owner2 = "SMITH, JANE"
		}
		if i%4 == 0 {
			a.Unit = fmt.Sprintf("#%d", i%10)
		}
		out = append(out, a)
	}
	return out
}
