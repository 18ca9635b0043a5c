package base

type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonDanger    ButtonVariant = "danger"
	ButtonPlain     ButtonVariant = "plain"
)

const buttonBase = "inline-flex items-center gap-1 rounded px-3 py-1.5 text-sm font-medium"

func buttonClass(v ButtonVariant, extra string) string {
	var variant string
	switch v {
	case ButtonPrimary:
		variant = "bg-blue-600 text-white hover:bg-blue-700"
	case ButtonDanger:
		variant = "bg-red-600 text-white hover:bg-red-700"
	case ButtonPlain:
		variant = "bg-transparent text-gray-700 px-1"
	default:
		variant = "border border-gray-300 bg-white text-gray-800 hover:bg-gray-50"
	}
	return Classes(buttonBase, variant, extra)
}

type ButtonProps struct {
	Label    string
	Variant  ButtonVariant
	Class    string
	Name     string
	Value    string
	Disabled bool
	// FormAction overrides the action of the enclosing form.
	FormAction string
	AriaLabel  string
}
