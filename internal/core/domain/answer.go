package domain

// Source is one citation returned by the answer backend. Both fields are optional.
type Source struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// QueryResult keeps sources in backend ranking order.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
