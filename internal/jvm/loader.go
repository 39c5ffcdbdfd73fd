package jvm

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mabhi256/gvm/internal/classfile"
	"github.com/mabhi256/gvm/internal/descriptor"
)

// LoadClass returns the class registered under name, deriving it from the
// classpath on first use. Array classes (leading '[') are synthesized after
// loading their component class. There is a single bootstrap-loader
// namespace.
func (vm *VM) LoadClass(name string) (*Class, error) {
	if c := vm.FindLoadedClass(name); c != nil {
		return c, nil
	}

	if strings.HasPrefix(name, "[") {
		return vm.loadArrayClass(name)
	}

	path := classFilePath(name, vm.opts.Classpath)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("locating class %s: %w", name, err)
	}

	file, err := classfile.Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return vm.deriveClass(file)
}

// classFilePath maps a class name to its file under the classpath root,
// accepting either '.' or '/' separators.
func classFilePath(name, classpath string) string {
	return filepath.Join(classpath, strings.ReplaceAll(name, ".", "/")+".class")
}

// loadArrayClass synthesizes the array class for name after loading its
// component. Array classes carry no members; their superclass is the root
// object class.
func (vm *VM) loadArrayClass(name string) (*Class, error) {
	component, err := vm.LoadClass(name[1:])
	if err != nil {
		return nil, fmt.Errorf("loading component of %s: %w", name, err)
	}

	c := &Class{
		Name:  name,
		Flags: component.Flags,
		Super: vm.ObjectClass,
	}
	c.setState(StateVerified)
	return vm.addClass(c)
}

// deriveClass lowers a parsed class file into a runtime class: constant
// pool, superclass chain, interfaces, methods (with Code decoding and
// native binding), fields and the static-slot vector.
func (vm *VM) deriveClass(file *classfile.File) (*Class, error) {
	name, err := file.ClassName(file.ThisClass)
	if err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}

	cp, err := vm.lowerConstantPool(file)
	if err != nil {
		return nil, fmt.Errorf("lowering constant pool of %s: %w", name, err)
	}

	var super *Class
	if file.SuperClass != 0 {
		superName, err := file.ClassName(file.SuperClass)
		if err != nil {
			return nil, fmt.Errorf("resolving super_class of %s: %w", name, err)
		}
		if super, err = vm.LoadClass(superName); err != nil {
			return nil, fmt.Errorf("loading superclass of %s: %w", name, err)
		}
	}

	interfaces := make([]*Class, 0, len(file.Interfaces))
	for _, idx := range file.Interfaces {
		ifaceName, err := file.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("resolving interface of %s: %w", name, err)
		}
		iface, err := vm.LoadClass(ifaceName)
		if err != nil {
			return nil, fmt.Errorf("loading interface of %s: %w", name, err)
		}
		interfaces = append(interfaces, iface)
	}

	methods, err := vm.lowerMethods(file, name)
	if err != nil {
		return nil, err
	}

	fields, err := lowerFields(file)
	if err != nil {
		return nil, fmt.Errorf("lowering fields of %s: %w", name, err)
	}

	staticCount := 0
	instanceCount := 0
	for i := range fields {
		if fields[i].IsStatic() {
			staticCount++
		} else {
			instanceCount++
		}
	}
	if super != nil {
		instanceCount += super.InstanceFieldCount
	}

	c := &Class{
		Name:               name,
		Flags:              file.AccessFlags,
		Super:              super,
		Interfaces:         interfaces,
		Fields:             fields,
		Methods:            methods,
		InstanceFieldCount: instanceCount,
		cp:                 cp,
	}
	c.statics = makeStatics(staticCount)
	c.setState(StateVerified)
	return vm.addClass(c)
}

// lowerConstantPool converts the file pool into runtime entries, keeping
// the 1-based indexing. String literals are interned eagerly; symbolic
// references stay unresolved until first use.
func (vm *VM) lowerConstantPool(file *classfile.File) ([]CPEntry, error) {
	cp := make([]CPEntry, len(file.ConstantPool))
	for i := range cp {
		cp[i] = CPHole{}
	}

	for i := 1; i < len(file.ConstantPool); i++ {
		switch info := file.ConstantPool[i].(type) {
		case classfile.IntegerInfo:
			cp[i] = CPValue{Bits: uint64(info.Value)}
		case classfile.FloatInfo:
			cp[i] = CPValue{Bits: uint64(info.Bits)}
		case classfile.LongInfo:
			cp[i] = CPValue{Bits: info.Bits}
		case classfile.DoubleInfo:
			// already the IEEE bit pattern; store as-is
			cp[i] = CPValue{Bits: info.Bits}
		case classfile.StringInfo:
			s, err := file.Utf8(info.StringIndex)
			if err != nil {
				return nil, fmt.Errorf("string constant at index %d: %w", i, err)
			}
			ref, err := vm.Strings.Intern(s)
			if err != nil {
				return nil, fmt.Errorf("interning string constant at index %d: %w", i, err)
			}
			cp[i] = CPString{Ref: ref}
		case classfile.ClassInfo:
			n, err := file.Utf8(info.NameIndex)
			if err != nil {
				return nil, fmt.Errorf("class constant at index %d: %w", i, err)
			}
			cp[i] = CPUnresolvedClass{Name: n}
		case classfile.FieldrefInfo:
			fname, fdesc, err := file.NameAndType(info.NameAndTypeIndex)
			if err != nil {
				return nil, fmt.Errorf("field ref at index %d: %w", i, err)
			}
			ftype, err := descriptor.ParseField(fdesc)
			if err != nil {
				return nil, fmt.Errorf("field ref at index %d: %w", i, err)
			}
			cp[i] = CPUnresolvedField{ClassIndex: info.ClassIndex, Name: fname, Type: ftype}
		case classfile.MethodrefInfo:
			mname, mdesc, err := file.NameAndType(info.NameAndTypeIndex)
			if err != nil {
				return nil, fmt.Errorf("method ref at index %d: %w", i, err)
			}
			d, err := descriptor.ParseMethod(mdesc)
			if err != nil {
				return nil, fmt.Errorf("method ref at index %d: %w", i, err)
			}
			cp[i] = CPUnresolvedMethod{ClassIndex: info.ClassIndex, Name: mname, Desc: d}
		case classfile.InterfaceMethodrefInfo:
			mname, mdesc, err := file.NameAndType(info.NameAndTypeIndex)
			if err != nil {
				return nil, fmt.Errorf("interface method ref at index %d: %w", i, err)
			}
			d, err := descriptor.ParseMethod(mdesc)
			if err != nil {
				return nil, fmt.Errorf("interface method ref at index %d: %w", i, err)
			}
			cp[i] = CPUnresolvedMethod{ClassIndex: info.ClassIndex, Name: mname, Desc: d, Interface: true}
		default:
			// Utf8, NameAndType, holes and the exotic tags stay holes;
			// nothing dispatches on them at run time.
		}
	}
	return cp, nil
}

// lowerMethods converts method records, decoding the Code attribute,
// validating the instruction stream and binding natives against the
// registry. An unresolvable native is a load-time error.
func (vm *VM) lowerMethods(file *classfile.File, className string) ([]Method, error) {
	methods := make([]Method, 0, len(file.Methods))
	for i := range file.Methods {
		mi := &file.Methods[i]
		mname, err := file.Utf8(mi.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("method %d of %s: %w", i, className, err)
		}
		mdesc, err := file.Utf8(mi.DescriptorIndex)
		if err != nil {
			return nil, fmt.Errorf("method %s of %s: %w", mname, className, err)
		}
		d, err := descriptor.ParseMethod(mdesc)
		if err != nil {
			return nil, fmt.Errorf("method %s of %s: %w", mname, className, err)
		}

		m := Method{Flags: mi.AccessFlags, Name: mname, Desc: d}

		if m.IsNative() {
			fn, ok := vm.natives[nativeKey{Class: className, Name: mname, Desc: mdesc}]
			if !ok {
				return nil, fmt.Errorf("could not bind native method %s.%s%s", className, mname, mdesc)
			}
			m.Native = fn
			methods = append(methods, m)
			continue
		}

		for _, attr := range mi.Attributes {
			attrName, err := file.Utf8(attr.NameIndex)
			if err != nil {
				return nil, fmt.Errorf("method %s of %s: attribute name: %w", mname, className, err)
			}
			if attrName != "Code" {
				continue
			}
			code, err := vm.lowerCode(file, attr.Data)
			if err != nil {
				return nil, fmt.Errorf("Code of %s.%s: %w", className, mname, err)
			}
			m.Code = code
		}
		methods = append(methods, m)
	}
	return methods, nil
}

/*
lowerCode decodes a Code attribute payload:

	u2      max_stack
	u2      max_locals
	u4      code_length, then code_length bytes
	u2      exception_table_length, then 4×u2 per entry
	u2      attributes_count, then nested attributes (ignored)

Catch-type class references are loaded eagerly so handler matching never
has to resolve mid-unwind.
*/
func (vm *VM) lowerCode(file *classfile.File, data []byte) (*Code, error) {
	r := classfile.NewReader(data)

	maxStack, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read max_stack: %w", err)
	}
	maxLocals, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read max_locals: %w", err)
	}
	codeLen, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read code length: %w", err)
	}
	bytes, err := r.ReadNBytes(int(codeLen))
	if err != nil {
		return nil, fmt.Errorf("failed to read code bytes: %w", err)
	}
	code := make([]byte, len(bytes))
	copy(code, bytes)

	if err := validateCode(code); err != nil {
		return nil, err
	}

	excLen, err := r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read exception table length: %w", err)
	}
	handlers := make([]ExceptionHandler, 0, excLen)
	for i := 0; i < int(excLen); i++ {
		var raw [4]uint16
		for j := range raw {
			if raw[j], err = r.ReadU2(); err != nil {
				return nil, fmt.Errorf("exception table entry %d: %w", i, err)
			}
		}
		h := ExceptionHandler{
			StartPC:   int(raw[0]),
			EndPC:     int(raw[1]),
			HandlerPC: int(raw[2]),
		}
		if raw[3] != 0 {
			catchName, err := file.ClassName(raw[3])
			if err != nil {
				return nil, fmt.Errorf("exception table entry %d catch type: %w", i, err)
			}
			if h.CatchType, err = vm.LoadClass(catchName); err != nil {
				return nil, fmt.Errorf("loading catch type %s: %w", catchName, err)
			}
		}
		handlers = append(handlers, h)
	}

	return &Code{
		MaxStack:  int(maxStack),
		MaxLocals: int(maxLocals),
		Bytes:     code,
		Handlers:  handlers,
	}, nil
}

func lowerFields(file *classfile.File) ([]Field, error) {
	fields := make([]Field, 0, len(file.Fields))
	for i := range file.Fields {
		fi := &file.Fields[i]
		fname, err := file.Utf8(fi.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		fdesc, err := file.Utf8(fi.DescriptorIndex)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fname, err)
		}
		ftype, err := descriptor.ParseField(fdesc)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fname, err)
		}
		fields = append(fields, Field{Flags: fi.AccessFlags, Name: fname, Type: ftype})
	}
	return fields, nil
}

// beU16 reads a big-endian u16 from a code stream.
func beU16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}
