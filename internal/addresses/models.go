package addresses

// Address is one door on a volunteer's walk list.
type Address struct {
	ID            string  `json:"id"`
	PrecinctID    string  `json:"precinct_id"`
	Owner1        string  `json:"owner1"`
	Owner2        string  `json:"owner2"`
	Address       string  `json:"address"`
	CityZip       string  `json:"city_zip"`
	StreetNumber  string  `json:"street_number"`
	StreetName    string  `json:"street_name"`
	Unit          string  `json:"unit"`
	ZipCode       string  `json:"zip_code"`
	PropertyType  string  `json:"property_type"`
	OwnerOccupied bool    `json:"owner_occupied"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	HasLocation   bool    `json:"has_location"`
}
