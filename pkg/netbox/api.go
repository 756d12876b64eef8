package netbox

// page is the envelope of every NetBox list endpoint.
type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

type apiRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type apiDevice struct {
	ID         int     `json:"id"`
	Name       *string `json:"name"`
	DeviceType *struct {
		Model string `json:"model"`
	} `json:"device_type"`
	// NetBox 3.6 renamed device_role to role.
	Role       *apiRef `json:"role"`
	DeviceRole *apiRef `json:"device_role"`
}

type apiInterface struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Device *apiRef `json:"device"`
}

type apiTermination struct {
	ObjectType string `json:"object_type"`
	ObjectID   int    `json:"object_id"`
	Object     *struct {
		ID     int     `json:"id"`
		Device *apiRef `json:"device"`
	} `json:"object"`
}

type apiCable struct {
	ID            int              `json:"id"`
	Label         string           `json:"label"`
	Color         string           `json:"color"`
	ATerminations []apiTermination `json:"a_terminations"`
	BTerminations []apiTermination `json:"b_terminations"`
}
