package classfile

import (
	"fmt"
)

// Magic is the mandatory first word of every class file.
const Magic = 0xCAFEBABE

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

func indexErrorf(index uint16, want string, got CPInfo) error {
	if got == nil {
		return fmt.Errorf("constant pool index %d is empty, want %s", index, want)
	}
	return fmt.Errorf("constant pool index %d is not %s (tag=%d)", index, want, got.Tag())
}

func (f *File) entry(index uint16) (CPInfo, error) {
	if index == 0 || int(index) >= len(f.ConstantPool) {
		return nil, fmt.Errorf("constant pool index %d out of range [1, %d)", index, len(f.ConstantPool))
	}
	e := f.ConstantPool[index]
	if e == nil {
		return nil, fmt.Errorf("constant pool index %d is unset", index)
	}
	return e, nil
}

/*
Parse decodes a class-file image:

	u4              magic (0xCAFEBABE)
	u2              minor_version
	u2              major_version
	u2              constant_pool_count, then count-1 cp_info entries
	u2              access_flags
	u2              this_class, u2 super_class
	u2              interfaces_count, then u2 each
	u2              fields_count, then field_info each
	u2              methods_count, then method_info each
	u2              attributes_count, then attribute_info each

Any truncation, a bad magic, an unknown constant tag, or trailing bytes
after the last attribute is a parse error.
*/
func Parse(buf []byte) (*File, error) {
	r := NewReader(buf)

	magic, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08X, want 0x%08X", magic, uint32(Magic))
	}

	f := &File{}
	if f.MinorVersion, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read minor version: %w", err)
	}
	if f.MajorVersion, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read major version: %w", err)
	}

	cpCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", err)
	}
	if f.ConstantPool, err = parseConstantPool(r, cpCount); err != nil {
		return nil, err
	}

	if f.AccessFlags, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read access flags: %w", err)
	}
	if f.ThisClass, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read this_class: %w", err)
	}
	if f.SuperClass, err = r.ReadU2(); err != nil {
		return nil, fmt.Errorf("failed to read super_class: %w", err)
	}

	ifaceCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read interfaces count: %w", err)
	}
	f.Interfaces = make([]uint16, ifaceCount)
	for i := range f.Interfaces {
		if f.Interfaces[i], err = r.ReadU2(); err != nil {
			return nil, fmt.Errorf("failed to read interface %d: %w", i, err)
		}
	}

	fieldCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", err)
	}
	f.Fields = make([]FieldInfo, fieldCount)
	for i := range f.Fields {
		if f.Fields[i], err = parseFieldInfo(r); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
	}

	methodCount, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", err)
	}
	f.Methods = make([]MethodInfo, methodCount)
	for i := range f.Methods {
		if f.Methods[i], err = parseMethodInfo(r); err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
	}

	if f.Attributes, err = parseAttributes(r); err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("class file has %d trailing bytes", r.Remaining())
	}
	return f, nil
}

// parseConstantPool reads count-1 entries. The returned slice is 1-indexed;
// Long and Double entries are followed by a HoleInfo occupying the second
// slot they own.
func parseConstantPool(r *Reader, count uint16) ([]CPInfo, error) {
	pool := make([]CPInfo, count)
	for i := uint16(1); i < count; i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, fmt.Errorf("failed to read constant tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			s, err := r.ReadUtf8()
			if err != nil {
				return nil, fmt.Errorf("Utf8 at index %d: %w", i, err)
			}
			pool[i] = Utf8Info{Value: s}

		case TagInteger:
			v, err := r.ReadU4()
			if err != nil {
				return nil, fmt.Errorf("Integer at index %d: %w", i, err)
			}
			pool[i] = IntegerInfo{Value: v}

		case TagFloat:
			v, err := r.ReadU4()
			if err != nil {
				return nil, fmt.Errorf("Float at index %d: %w", i, err)
			}
			pool[i] = FloatInfo{Bits: v}

		case TagLong:
			v, err := r.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("Long at index %d: %w", i, err)
			}
			pool[i] = LongInfo{Bits: v}
			i++ // second slot
			if i < count {
				pool[i] = HoleInfo{}
			}

		case TagDouble:
			v, err := r.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("Double at index %d: %w", i, err)
			}
			pool[i] = DoubleInfo{Bits: v}
			i++ // second slot
			if i < count {
				pool[i] = HoleInfo{}
			}

		case TagClass:
			idx, err := r.ReadU2()
			if err != nil {
				return nil, fmt.Errorf("Class at index %d: %w", i, err)
			}
			pool[i] = ClassInfo{NameIndex: idx}

		case TagString:
			idx, err := r.ReadU2()
			if err != nil {
				return nil, fmt.Errorf("String at index %d: %w", i, err)
			}
			pool[i] = StringInfo{StringIndex: idx}

		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType:
			a, err := r.ReadU2()
			if err != nil {
				return nil, fmt.Errorf("ref at index %d: %w", i, err)
			}
			b, err := r.ReadU2()
			if err != nil {
				return nil, fmt.Errorf("ref at index %d: %w", i, err)
			}
			switch tag {
			case TagFieldref:
				pool[i] = FieldrefInfo{ClassIndex: a, NameAndTypeIndex: b}
			case TagMethodref:
				pool[i] = MethodrefInfo{ClassIndex: a, NameAndTypeIndex: b}
			case TagInterfaceMethodref:
				pool[i] = InterfaceMethodrefInfo{ClassIndex: a, NameAndTypeIndex: b}
			default:
				pool[i] = NameAndTypeInfo{NameIndex: a, DescriptorIndex: b}
			}

		case TagMethodHandle:
			// reference_kind (u1) + reference_index (u2)
			if _, err := r.ReadNBytes(3); err != nil {
				return nil, fmt.Errorf("MethodHandle at index %d: %w", i, err)
			}
			pool[i] = placeholderInfo{tag: tag}

		case TagMethodType, TagModule, TagPackage:
			if _, err := r.ReadNBytes(2); err != nil {
				return nil, fmt.Errorf("constant tag %d at index %d: %w", tag, i, err)
			}
			pool[i] = placeholderInfo{tag: tag}

		case TagDynamic, TagInvokeDynamic:
			if _, err := r.ReadNBytes(4); err != nil {
				return nil, fmt.Errorf("constant tag %d at index %d: %w", tag, i, err)
			}
			pool[i] = placeholderInfo{tag: tag}

		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
	}
	return pool, nil
}

func parseFieldInfo(r *Reader) (FieldInfo, error) {
	var fi FieldInfo
	var err error
	if fi.AccessFlags, err = r.ReadU2(); err != nil {
		return fi, fmt.Errorf("failed to read access flags: %w", err)
	}
	if fi.NameIndex, err = r.ReadU2(); err != nil {
		return fi, fmt.Errorf("failed to read name index: %w", err)
	}
	if fi.DescriptorIndex, err = r.ReadU2(); err != nil {
		return fi, fmt.Errorf("failed to read descriptor index: %w", err)
	}
	if fi.Attributes, err = parseAttributes(r); err != nil {
		return fi, err
	}
	return fi, nil
}

func parseMethodInfo(r *Reader) (MethodInfo, error) {
	var mi MethodInfo
	var err error
	if mi.AccessFlags, err = r.ReadU2(); err != nil {
		return mi, fmt.Errorf("failed to read access flags: %w", err)
	}
	if mi.NameIndex, err = r.ReadU2(); err != nil {
		return mi, fmt.Errorf("failed to read name index: %w", err)
	}
	if mi.DescriptorIndex, err = r.ReadU2(); err != nil {
		return mi, fmt.Errorf("failed to read descriptor index: %w", err)
	}
	if mi.Attributes, err = parseAttributes(r); err != nil {
		return mi, err
	}
	return mi, nil
}

func parseAttributes(r *Reader) ([]AttributeInfo, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes count: %w", err)
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		if attrs[i].NameIndex, err = r.ReadU2(); err != nil {
			return nil, fmt.Errorf("attribute %d name: %w", i, err)
		}
		length, err := r.ReadU4()
		if err != nil {
			return nil, fmt.Errorf("attribute %d length: %w", i, err)
		}
		data, err := r.ReadNBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("attribute %d payload: %w", i, err)
		}
		attrs[i].Data = data
	}
	return attrs, nil
}
