package model

// RawRow is a decoded export row before normalization. All fields are kept
// exactly as the importer read them; Date may be a day serial or an ISO date.
type RawRow struct {
	Line        int
	Direction   string
	Date        string
	Amount      string
	Description string
	ExternalID  string
	Category    string
	Status      string
}

// IsBlank reports whether every data field of the row is empty.
func (r RawRow) IsBlank() bool {
	return r.Direction == "" && r.Date == "" && r.Amount == "" &&
		r.Description == "" && r.ExternalID == "" && r.Category == "" && r.Status == ""
}
