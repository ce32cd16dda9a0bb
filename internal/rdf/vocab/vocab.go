// Package vocab holds the fixed IRIs the type index registry reads and writes.
package vocab

// Namespaces.
const (
	RDFNamespace   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	SolidNamespace = "http://www.w3.org/ns/solid/terms#"
	PIMNamespace   = "http://www.w3.org/ns/pim/space#"
	LDPNamespace   = "http://www.w3.org/ns/ldp#"
)

// RDFType is rdf:type.
const RDFType = RDFNamespace + "type"

// Solid terms vocabulary.
const (
	// TypeIndex is the class of every type index document.
	TypeIndex = SolidNamespace + "TypeIndex"

	// ListedDocument marks the public (listed) type index.
	ListedDocument = SolidNamespace + "ListedDocument"

	// UnlistedDocument marks the private (unlisted) type index.
	UnlistedDocument = SolidNamespace + "UnlistedDocument"

	// TypeRegistration is the class of one class-to-location entry.
	TypeRegistration = SolidNamespace + "TypeRegistration"

	ForClass          = SolidNamespace + "forClass"
	Instance          = SolidNamespace + "instance"
	InstanceContainer = SolidNamespace + "instanceContainer"

	// PublicTypeIndex links a WebID to its listed index, from the profile document.
	PublicTypeIndex = SolidNamespace + "publicTypeIndex"

	// PrivateTypeIndex links a WebID to its unlisted index, from the preferences document.
	PrivateTypeIndex = SolidNamespace + "privateTypeIndex"

	// InsertDeletePatch is the class of an N3 patch document.
	InsertDeletePatch = SolidNamespace + "InsertDeletePatch"
	Inserts           = SolidNamespace + "inserts"
	Deletes           = SolidNamespace + "deletes"
)

// PIM space vocabulary.
const (
	PreferencesFile = PIMNamespace + "preferencesFile"
	Storage         = PIMNamespace + "storage"
)

// LDP vocabulary.
const (
	LDPResource       = LDPNamespace + "Resource"
	LDPBasicContainer = LDPNamespace + "BasicContainer"
	LDPContains       = LDPNamespace + "contains"
)

// Prefixes maps the short prefixes used in Turtle output to their namespaces.
var Prefixes = map[string]string{
	"rdf":   RDFNamespace,
	"solid": SolidNamespace,
	"pim":   PIMNamespace,
	"ldp":   LDPNamespace,
}
