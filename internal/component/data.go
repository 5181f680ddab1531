package component

// Data is a free-form component for script-defined types: a tag plus numeric
// fields. Lua systems read and write it by field name.
type Data struct {
	Tag    string
	Fields map[string]float64
}

func NewData(tag string) *Data {
	return &Data{Tag: tag, Fields: make(map[string]float64)}
}

func (d *Data) Type() string { return d.Tag }

func (d *Data) Get(field string) (float64, bool) {
	v, ok := d.Fields[field]
	return v, ok
}

func (d *Data) Set(field string, v float64) bool {
	if d.Fields == nil {
		d.Fields = make(map[string]float64)
	}
	d.Fields[field] = v
	return true
}
