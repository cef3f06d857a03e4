package heroes

// HeroRecord is the payload shape exchanged with the data backend. ID is
// assigned by the backend and immutable once set.
type HeroRecord struct {
	ID        string `json:"id"`
	HeroName  string `json:"hero_name"`
	Powers    string `json:"powers"`
	Backstory string `json:"backstory"`
}

// HeroInput carries the caller-supplied fields for create and update. It
// never carries an id: the backend assigns one on create and the id is a
// separate argument on update.
type HeroInput struct {
	HeroName  string `json:"hero_name"`
	Powers    string `json:"powers"`
	Backstory string `json:"backstory"`
}

// HeroPage is one page of a list operation. NextToken is an opaque
// continuation cursor: never interpreted, only echoed back on the next call.
// Empty means there are no further pages.
type HeroPage struct {
	Items     []HeroRecord `json:"heroes"`
	NextToken string       `json:"nextToken"`
}
