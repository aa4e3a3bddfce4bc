package catalog

// Option axes the storefront derives convenience fields for.
const (
	AxisColor = "color"
	AxisSize  = "size"
)

// IsAxis reports whether an option name equals axis under ASCII case folding.
// axis must already be lower case.
func IsAxis(name, axis string) bool {
	if len(name) != len(axis) {
		return false
	}
	for i := range len(name) {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != axis[i] {
			return false
		}
	}
	return true
}

// OptionValues returns the values of the first option definition named axis,
// or nil when the product defines no such axis.
func OptionValues(options []OptionDefinition, axis string) []string {
	for _, o := range options {
		if IsAxis(o.Name, axis) {
			return o.Values
		}
	}
	return nil
}

// SelectedValue returns the value of the first selected option named axis,
// or "" when the variant does not specify that axis.
func SelectedValue(options []SelectedOption, axis string) string {
	for _, o := range options {
		if IsAxis(o.Name, axis) {
			return o.Value
		}
	}
	return ""
}
