package classfile

// Class access and property flags.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccNative    = 0x0100
	AccInterface = 0x0200
	AccAbstract  = 0x0400
)

// File is the structural record produced by parsing a .class file. It is
// consumed by the class loader and then discarded.
type File struct {
	MinorVersion uint16
	MajorVersion uint16
	// ConstantPool is 1-indexed: index 0 is nil, and the slot after a
	// Long or Double entry holds a Hole.
	ConstantPool []CPInfo
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

// CPInfo is implemented by all constant-pool entry variants.
type CPInfo interface {
	Tag() uint8
}

type Utf8Info struct{ Value string }

func (Utf8Info) Tag() uint8 { return TagUtf8 }

type IntegerInfo struct{ Value uint32 }

func (IntegerInfo) Tag() uint8 { return TagInteger }

type FloatInfo struct{ Bits uint32 }

func (FloatInfo) Tag() uint8 { return TagFloat }

type LongInfo struct{ Bits uint64 }

func (LongInfo) Tag() uint8 { return TagLong }

type DoubleInfo struct{ Bits uint64 }

func (DoubleInfo) Tag() uint8 { return TagDouble }

type ClassInfo struct{ NameIndex uint16 }

func (ClassInfo) Tag() uint8 { return TagClass }

type StringInfo struct{ StringIndex uint16 }

func (StringInfo) Tag() uint8 { return TagString }

type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (FieldrefInfo) Tag() uint8 { return TagFieldref }

type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (MethodrefInfo) Tag() uint8 { return TagMethodref }

type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodrefInfo) Tag() uint8 { return TagInterfaceMethodref }

type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndTypeInfo) Tag() uint8 { return TagNameAndType }

// HoleInfo marks the unusable second slot of a Long or Double entry.
type HoleInfo struct{}

func (HoleInfo) Tag() uint8 { return 0 }

// placeholderInfo stands in for entry kinds the loader never consults
// (MethodHandle, MethodType, Dynamic, ...). The payload bytes are skipped
// during parsing.
type placeholderInfo struct{ tag uint8 }

func (p placeholderInfo) Tag() uint8 { return p.tag }

// FieldInfo represents one field_info record.
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// MethodInfo represents one method_info record.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// AttributeInfo keeps an attribute as its name index plus raw payload;
// only Code is interpreted structurally, and that happens in the loader.
type AttributeInfo struct {
	NameIndex uint16
	Data      []byte
}

// Utf8 returns the Utf8 string at the given constant-pool index.
func (f *File) Utf8(index uint16) (string, error) {
	entry, err := f.entry(index)
	if err != nil {
		return "", err
	}
	u, ok := entry.(Utf8Info)
	if !ok {
		return "", indexErrorf(index, "Utf8", entry)
	}
	return u.Value, nil
}

// ClassName resolves a Class_info entry to its name string.
func (f *File) ClassName(index uint16) (string, error) {
	entry, err := f.entry(index)
	if err != nil {
		return "", err
	}
	c, ok := entry.(ClassInfo)
	if !ok {
		return "", indexErrorf(index, "Class", entry)
	}
	return f.Utf8(c.NameIndex)
}

// NameAndType resolves a NameAndType_info entry to its (name, descriptor)
// string pair.
func (f *File) NameAndType(index uint16) (string, string, error) {
	entry, err := f.entry(index)
	if err != nil {
		return "", "", err
	}
	nat, ok := entry.(NameAndTypeInfo)
	if !ok {
		return "", "", indexErrorf(index, "NameAndType", entry)
	}
	name, err := f.Utf8(nat.NameIndex)
	if err != nil {
		return "", "", err
	}
	desc, err := f.Utf8(nat.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}
