package models

// Media is an object held by the external upload store.
type Media struct {
	URL string `json:"url" bson:"url"`
	// ID is the opaque identifier used to delete the object.
	ID string `json:"-" bson:"id"`
}

// MediaURLs returns the URLs of items in order.
func MediaURLs(items []Media) []string {
	urls := make([]string, len(items))
	for i, m := range items {
		urls[i] = m.URL
	}
	return urls
}
