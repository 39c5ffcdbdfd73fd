package jvm

import (
	"fmt"
	"math"

	"github.com/mabhi256/gvm/internal/heap"
)

func i32(v uint64) int32    { return int32(uint32(v)) }
func u32(v int32) uint64    { return uint64(uint32(v)) }
func i64(v uint64) int64    { return int64(v) }
func u64(v int64) uint64    { return uint64(v) }
func f32(v uint64) float32  { return math.Float32frombits(uint32(v)) }
func uf32(v float32) uint64 { return uint64(math.Float32bits(v)) }
func f64(v uint64) float64  { return math.Float64frombits(v) }
func uf64(v float64) uint64 { return math.Float64bits(v) }

// newarrayTypeNames maps the newarray atype operand to the pre-registered
// primitive array class.
var newarrayTypeNames = map[byte]string{
	4:  "[Z",
	5:  "[C",
	6:  "[F",
	7:  "[D",
	8:  "[B",
	9:  "[S",
	10: "[I",
	11: "[J",
}

// run interprets the frame's method until a return opcode or an unhandled
// exception. Exceptions raised here or in callees are matched against the
// frame's handler table at the current pc; a miss propagates the exception
// to the caller's loop.
func (t *Thread) run(f *Frame) (uint64, bool, error) {
	code := f.method.Code.Bytes

	for {
		if f.pc < 0 || f.pc >= len(code) {
			return 0, false, fmt.Errorf("pc %d out of range in %s.%s", f.pc, f.class.Name, f.method.Name)
		}
		op := code[f.pc]
		t.vm.Stats.count(op)
		if t.vm.opts.PrintTrace {
			t.vm.tracef("%s.%s pc=%-4d %-16s stack=%d", f.class.Name, f.method.Name,
				f.pc, InstructionName(op), f.StackDepth())
		}

		var err error

		switch op {
		case opNop:

		case opAconstNull:
			f.Push(0)
		case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
			f.Push(u32(int32(op) - opIconst0))
		case opLconst0, opLconst1:
			f.Push(uint64(op - opLconst0))
		case opFconst0:
			f.Push(uf32(0))
		case opFconst1:
			f.Push(uf32(1))
		case opFconst2:
			f.Push(uf32(2))
		case opDconst0:
			f.Push(uf64(0))
		case opDconst1:
			f.Push(uf64(1))

		case opBipush:
			f.Push(u32(int32(int8(code[f.pc+1]))))
		case opSipush:
			f.Push(u32(int32(int16(beU16(code[f.pc+1:])))))

		case opLdc:
			err = t.execLdc(f, int(code[f.pc+1]))
		case opLdc2W:
			err = t.execLdc(f, int(beU16(code[f.pc+1:])))

		case opIload, opFload:
			f.Push(uint64(f.GetS(int(code[f.pc+1]))))
		case opLload, opDload, opAload:
			f.Push(f.GetD(int(code[f.pc+1])))
		case opIload0, opIload1, opIload2, opIload3:
			f.Push(uint64(f.GetS(int(op - opIload0))))
		case opLload0, opLload1, opLload2, opLload3:
			f.Push(f.GetD(int(op - opLload0)))
		case opFload0, opFload1, opFload2, opFload3:
			f.Push(uint64(f.GetS(int(op - opFload0))))
		case opDload0, opDload1, opDload2, opDload3:
			f.Push(f.GetD(int(op - opDload0)))
		case opAload0, opAload1, opAload2, opAload3:
			f.Push(f.GetD(int(op - opAload0)))

		case opIstore, opFstore:
			f.SetS(int(code[f.pc+1]), uint32(f.Pop()))
		case opLstore, opDstore, opAstore:
			f.SetD(int(code[f.pc+1]), f.Pop())
		case opIstore0, opIstore1, opIstore2, opIstore3:
			f.SetS(int(op-opIstore0), uint32(f.Pop()))
		case opLstore0, opLstore1, opLstore2, opLstore3:
			f.SetD(int(op-opLstore0), f.Pop())
		case opFstore0, opFstore1, opFstore2, opFstore3:
			f.SetS(int(op-opFstore0), uint32(f.Pop()))
		case opDstore0, opDstore1, opDstore2, opDstore3:
			f.SetD(int(op-opDstore0), f.Pop())
		case opAstore0, opAstore1, opAstore2, opAstore3:
			f.SetD(int(op-opAstore0), f.Pop())

		case opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload:
			index := int(i32(f.Pop()))
			arr := refFromWord(f.Pop())
			if arr.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
				break
			}
			v, ok := t.vm.Arena.GetElem(arr, index)
			if !ok {
				err = t.ThrowMessage("java/lang/ArrayIndexOutOfBoundsException",
					fmt.Sprintf("Index %d out of bounds for length %d", index, t.vm.Arena.ArrayLength(arr)))
				break
			}
			f.Push(v)

		case opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore:
			v := f.Pop()
			index := int(i32(f.Pop()))
			arr := refFromWord(f.Pop())
			if arr.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
				break
			}
			if !t.vm.Arena.SetElem(arr, index, v) {
				err = t.ThrowMessage("java/lang/ArrayIndexOutOfBoundsException",
					fmt.Sprintf("Index %d out of bounds for length %d", index, t.vm.Arena.ArrayLength(arr)))
			}

		case opPop:
			f.Pop()
		case opDup:
			f.Push(f.PeekNth(0))
		case opDupX1:
			a := f.Pop()
			b := f.Pop()
			f.Push(a)
			f.Push(b)
			f.Push(a)
		case opSwap:
			a := f.Pop()
			b := f.Pop()
			f.Push(a)
			f.Push(b)

		case opIadd:
			b, a := i32(f.Pop()), i32(f.Pop())
			f.Push(u32(a + b))
		case opIsub:
			b, a := i32(f.Pop()), i32(f.Pop())
			f.Push(u32(a - b))
		case opImul:
			b, a := i32(f.Pop()), i32(f.Pop())
			f.Push(u32(a * b))
		case opIdiv:
			b, a := i32(f.Pop()), i32(f.Pop())
			switch {
			case b == 0:
				err = t.ThrowMessage("java/lang/ArithmeticException", "/ by zero")
			case a == math.MinInt32 && b == -1:
				f.Push(u32(a))
			default:
				f.Push(u32(a / b))
			}
		case opIrem:
			b, a := i32(f.Pop()), i32(f.Pop())
			switch {
			case b == 0:
				err = t.ThrowMessage("java/lang/ArithmeticException", "/ by zero")
			case b == -1:
				f.Push(0)
			default:
				f.Push(u32(a % b))
			}
		case opIneg:
			f.Push(u32(-i32(f.Pop())))

		case opLadd:
			b, a := i64(f.Pop()), i64(f.Pop())
			f.Push(u64(a + b))
		case opLsub:
			b, a := i64(f.Pop()), i64(f.Pop())
			f.Push(u64(a - b))
		case opLmul:
			b, a := i64(f.Pop()), i64(f.Pop())
			f.Push(u64(a * b))
		case opLdiv:
			b, a := i64(f.Pop()), i64(f.Pop())
			switch {
			case b == 0:
				err = t.ThrowMessage("java/lang/ArithmeticException", "/ by zero")
			case a == math.MinInt64 && b == -1:
				f.Push(u64(a))
			default:
				f.Push(u64(a / b))
			}
		case opLrem:
			b, a := i64(f.Pop()), i64(f.Pop())
			switch {
			case b == 0:
				err = t.ThrowMessage("java/lang/ArithmeticException", "/ by zero")
			case b == -1:
				f.Push(0)
			default:
				f.Push(u64(a % b))
			}
		case opLneg:
			f.Push(u64(-i64(f.Pop())))

		case opFadd:
			b, a := f32(f.Pop()), f32(f.Pop())
			f.Push(uf32(a + b))
		case opFsub:
			b, a := f32(f.Pop()), f32(f.Pop())
			f.Push(uf32(a - b))
		case opFmul:
			b, a := f32(f.Pop()), f32(f.Pop())
			f.Push(uf32(a * b))
		case opFdiv:
			b, a := f32(f.Pop()), f32(f.Pop())
			f.Push(uf32(a / b))
		case opFneg:
			f.Push(uf32(-f32(f.Pop())))

		case opDadd:
			b, a := f64(f.Pop()), f64(f.Pop())
			f.Push(uf64(a + b))
		case opDsub:
			b, a := f64(f.Pop()), f64(f.Pop())
			f.Push(uf64(a - b))
		case opDmul:
			b, a := f64(f.Pop()), f64(f.Pop())
			f.Push(uf64(a * b))
		case opDdiv:
			b, a := f64(f.Pop()), f64(f.Pop())
			f.Push(uf64(a / b))
		case opDneg:
			f.Push(uf64(-f64(f.Pop())))

		case opIinc:
			index := int(code[f.pc+1])
			delta := int32(int8(code[f.pc+2]))
			f.SetS(index, uint32(i32(uint64(f.GetS(index)))+delta))

		case opI2l:
			f.Push(u64(int64(i32(f.Pop()))))
		case opI2f:
			f.Push(uf32(float32(i32(f.Pop()))))
		case opI2d:
			f.Push(uf64(float64(i32(f.Pop()))))
		case opL2i:
			f.Push(u32(int32(i64(f.Pop()))))
		case opL2d:
			f.Push(uf64(float64(i64(f.Pop()))))
		case opF2d:
			f.Push(uf64(float64(f32(f.Pop()))))
		case opD2i:
			f.Push(u32(d2iSaturating(f64(f.Pop()))))
		case opD2l:
			f.Push(u64(d2lSaturating(f64(f.Pop()))))

		case opLcmp:
			b, a := i64(f.Pop()), i64(f.Pop())
			f.Push(u32(cmpInt64(a, b)))
		case opFcmpl, opFcmpg:
			b, a := f32(f.Pop()), f32(f.Pop())
			f.Push(u32(cmpFloat64(float64(a), float64(b), op == opFcmpg)))
		case opDcmpl, opDcmpg:
			b, a := f64(f.Pop()), f64(f.Pop())
			f.Push(u32(cmpFloat64(a, b, op == opDcmpg)))

		case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
			v := i32(f.Pop())
			var taken bool
			switch op {
			case opIfeq:
				taken = v == 0
			case opIfne:
				taken = v != 0
			case opIflt:
				taken = v < 0
			case opIfge:
				taken = v >= 0
			case opIfgt:
				taken = v > 0
			default:
				taken = v <= 0
			}
			if taken {
				f.pc += int(int16(beU16(code[f.pc+1:])))
				continue
			}

		case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
			b, a := i32(f.Pop()), i32(f.Pop())
			var taken bool
			switch op {
			case opIfIcmpeq:
				taken = a == b
			case opIfIcmpne:
				taken = a != b
			case opIfIcmplt:
				taken = a < b
			case opIfIcmpge:
				taken = a >= b
			case opIfIcmpgt:
				taken = a > b
			default:
				taken = a <= b
			}
			if taken {
				f.pc += int(int16(beU16(code[f.pc+1:])))
				continue
			}

		case opIfAcmpeq, opIfAcmpne:
			b, a := f.Pop(), f.Pop()
			if (a == b) == (op == opIfAcmpeq) {
				f.pc += int(int16(beU16(code[f.pc+1:])))
				continue
			}

		case opGoto:
			f.pc += int(int16(beU16(code[f.pc+1:])))
			continue

		case opIreturn, opLreturn, opFreturn, opDreturn, opAreturn:
			return f.Pop(), true, nil
		case opReturn:
			return 0, false, nil

		case opGetstatic:
			var entry CPEntry
			entry, err = t.Resolve(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			fieldRef, ok := entry.(CPResolvedField)
			if !ok || fieldRef.Instance {
				err = fmt.Errorf("getstatic on non-static constant at pc=%d in %s", f.pc, f.class.Name)
				break
			}
			f.Push(fieldRef.Class.GetStatic(fieldRef.Slot))

		case opPutstatic:
			var entry CPEntry
			entry, err = t.Resolve(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			fieldRef, ok := entry.(CPResolvedField)
			if !ok || fieldRef.Instance {
				err = fmt.Errorf("putstatic on non-static constant at pc=%d in %s", f.pc, f.class.Name)
				break
			}
			fieldRef.Class.SetStatic(fieldRef.Slot, f.Pop())

		case opGetfield:
			var entry CPEntry
			entry, err = t.Resolve(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			fieldRef, ok := entry.(CPResolvedField)
			if !ok || !fieldRef.Instance {
				err = fmt.Errorf("getfield on non-instance constant at pc=%d in %s", f.pc, f.class.Name)
				break
			}
			obj := refFromWord(f.Pop())
			if obj.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
				break
			}
			f.Push(t.vm.Arena.GetField(obj, fieldRef.Slot))

		case opPutfield:
			var entry CPEntry
			entry, err = t.Resolve(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			fieldRef, ok := entry.(CPResolvedField)
			if !ok || !fieldRef.Instance {
				err = fmt.Errorf("putfield on non-instance constant at pc=%d in %s", f.pc, f.class.Name)
				break
			}
			v := f.Pop()
			obj := refFromWord(f.Pop())
			if obj.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
				break
			}
			t.vm.Arena.SetField(obj, fieldRef.Slot, v)

		case opInvokestatic:
			err = t.execInvokeStatic(f, int(beU16(code[f.pc+1:])))
		case opInvokespecial:
			err = t.execInvokeSpecial(f, int(beU16(code[f.pc+1:])))
		case opInvokevirtual:
			err = t.execInvokeVirtual(f, int(beU16(code[f.pc+1:])))
		case opInvokeinterface:
			err = t.execInvokeInterface(f, int(beU16(code[f.pc+1:])))

		case opNew:
			err = t.execNew(f, int(beU16(code[f.pc+1:])))
		case opNewarray:
			err = t.execNewarray(f, code[f.pc+1])
		case opAnewarray:
			err = t.execAnewarray(f, int(beU16(code[f.pc+1:])))

		case opArraylength:
			arr := refFromWord(f.Pop())
			if arr.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
				break
			}
			f.Push(u32(int32(t.vm.Arena.ArrayLength(arr))))

		case opAthrow:
			exc := refFromWord(f.Pop())
			if exc.IsNull() {
				err = t.Throw("java/lang/NullPointerException")
			} else {
				err = &javaException{ref: exc}
			}

		case opCheckcast:
			var target *Class
			target, err = t.resolveClassEntry(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			obj := refFromWord(f.PeekNth(0))
			if !obj.IsNull() && !t.vm.ClassOf(obj).IsSubclassOf(target) {
				err = t.ThrowMessage("java/lang/ClassCastException",
					fmt.Sprintf("%s cannot be cast to %s", t.vm.ClassOf(obj).Name, target.Name))
			}

		case opInstanceof:
			var target *Class
			target, err = t.resolveClassEntry(f.class, int(beU16(code[f.pc+1:])))
			if err != nil {
				break
			}
			obj := refFromWord(f.Pop())
			if !obj.IsNull() && t.vm.ClassOf(obj).IsSubclassOf(target) {
				f.Push(1)
			} else {
				f.Push(0)
			}

		case opImpdep1:
			// reserved sentinel: stop the statistics sampler
			t.vm.Stats.Stop()

		case opBreakpoint, opImpdep2:
			return 0, false, fmt.Errorf("reserved opcode %s at pc=%d in %s.%s",
				InstructionName(op), f.pc, f.class.Name, f.method.Name)

		default:
			return 0, false, &unsupportedOpcodeError{op: op, pc: f.pc}
		}

		if err != nil {
			je, ok := err.(*javaException)
			if !ok {
				return 0, false, err
			}
			if h := t.findHandler(f, je.ref); h != nil {
				f.ClearStack()
				f.Push(uint64(je.ref))
				f.pc = h.HandlerPC
				continue
			}
			return 0, false, je
		}

		f.pc += instrLengths[op]
	}
}

// findHandler searches the frame's handler table at the current pc. The
// first handler covering the pc whose catch type is nil (catch-all) or a
// superclass of the thrown class wins.
func (t *Thread) findHandler(f *Frame, exc heap.Ref) *ExceptionHandler {
	thrown := t.vm.ClassOf(exc)
	for i := range f.method.Code.Handlers {
		h := &f.method.Code.Handlers[i]
		if f.pc < h.StartPC || f.pc >= h.EndPC {
			continue
		}
		if h.CatchType == nil || (thrown != nil && thrown.IsSubclassOf(h.CatchType)) {
			return h
		}
	}
	return nil
}

func (t *Thread) execLdc(f *Frame, index int) error {
	switch e := f.class.CPEntry(index).(type) {
	case CPValue:
		f.Push(e.Bits)
	case CPString:
		f.Push(uint64(e.Ref))
	default:
		return fmt.Errorf("ldc of unsupported constant at index %d in %s", index, f.class.Name)
	}
	return nil
}

func (t *Thread) execInvokeStatic(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedMethod)
	if !ok {
		return fmt.Errorf("invokestatic on non-method constant %d in %s", index, f.class.Name)
	}
	m := &ref.Class.Methods[ref.Index]
	if err := t.InitializeClass(ref.Class); err != nil {
		return err
	}

	args := f.PopArgs(m.ArgWords())
	ret, hasRet, err := t.invoke(ref.Class, ref.Index, args)
	if err != nil {
		return err
	}
	if hasRet && m.ReturnsValue() {
		f.Push(ret)
	}
	return nil
}

func (t *Thread) execInvokeSpecial(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedMethod)
	if !ok {
		return fmt.Errorf("invokespecial on non-method constant %d in %s", index, f.class.Name)
	}
	m := &ref.Class.Methods[ref.Index]

	args := f.PopArgs(m.ArgWords() + 1)
	if refFromWord(args[0]).IsNull() {
		return t.Throw("java/lang/NullPointerException")
	}
	ret, hasRet, err := t.invoke(ref.Class, ref.Index, args)
	if err != nil {
		return err
	}
	if hasRet && m.ReturnsValue() {
		f.Push(ret)
	}
	return nil
}

func (t *Thread) execInvokeVirtual(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedMethod)
	if !ok {
		return fmt.Errorf("invokevirtual on non-method constant %d in %s", index, f.class.Name)
	}
	return t.dispatchInstanceCall(f, ref)
}

func (t *Thread) execInvokeInterface(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedMethod)
	if !ok {
		return fmt.Errorf("invokeinterface on non-method constant %d in %s", index, f.class.Name)
	}
	return t.dispatchInstanceCall(f, ref)
}

// dispatchInstanceCall pops receiver+args, null-checks, and selects the
// invocation target by walking the receiver's superclass chain for a
// method that overrides the resolved one. Private methods skip selection.
func (t *Thread) dispatchInstanceCall(f *Frame, ref CPResolvedMethod) error {
	resolved := &ref.Class.Methods[ref.Index]

	args := f.PopArgs(resolved.ArgWords() + 1)
	this := refFromWord(args[0])
	if this.IsNull() {
		return t.Throw("java/lang/NullPointerException")
	}

	targetClass, targetIndex := ref.Class, ref.Index
	if !resolved.IsPrivate() {
		if c, i := t.selectOverride(t.vm.ClassOf(this), resolved, ref.Class, f.class); c != nil {
			targetClass, targetIndex = c, i
		}
	}

	m := &targetClass.Methods[targetIndex]
	ret, hasRet, err := t.invoke(targetClass, targetIndex, args)
	if err != nil {
		return err
	}
	if hasRet && m.ReturnsValue() {
		f.Push(ret)
	}
	return nil
}

// selectOverride walks up from the receiver's class looking for the first
// method that can override the resolved one:
// same name+descriptor, not private, and the resolved method accessible to
// it (public, protected, or package-private within the resolved class's
// package as seen from the caller).
func (t *Thread) selectOverride(objClass *Class, resolved *Method, resolvedClass, callerClass *Class) (*Class, int) {
	for cur := objClass; cur != nil; cur = cur.Super {
		i := cur.FindMethod(resolved.Name, resolved.Desc)
		if i < 0 {
			continue
		}
		cand := &cur.Methods[i]
		if cand.IsPrivate() {
			continue
		}
		if resolved.IsPublic() || resolved.IsProtected() ||
			(resolved.IsPackagePrivate() && callerClass.PackageName() == resolvedClass.PackageName()) {
			return cur, i
		}
	}
	return nil, -1
}

func (t *Thread) execNew(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedClass)
	if !ok {
		return fmt.Errorf("new on non-class constant %d in %s", index, f.class.Name)
	}
	if err := t.InitializeClass(ref.Class); err != nil {
		return err
	}
	obj, err := t.vm.Arena.NewObject(ref.Class.ID(), ref.Class.InstanceFieldCount)
	if err != nil {
		return err
	}
	f.Push(uint64(obj))
	return nil
}

func (t *Thread) execNewarray(f *Frame, atype byte) error {
	name, ok := newarrayTypeNames[atype]
	if !ok {
		return fmt.Errorf("newarray with invalid type %d", atype)
	}
	length := i32(f.Pop())
	if length < 0 {
		return t.ThrowMessage("java/lang/NegativeArraySizeException", fmt.Sprintf("%d", length))
	}
	c, err := t.vm.LoadClass(name)
	if err != nil {
		return err
	}
	arr, err := t.vm.Arena.NewArray(c.ID(), int(length))
	if err != nil {
		return err
	}
	f.Push(uint64(arr))
	return nil
}

func (t *Thread) execAnewarray(f *Frame, index int) error {
	entry, err := t.Resolve(f.class, index)
	if err != nil {
		return err
	}
	ref, ok := entry.(CPResolvedClass)
	if !ok {
		return fmt.Errorf("anewarray on non-class constant %d in %s", index, f.class.Name)
	}
	length := i32(f.Pop())
	if length < 0 {
		return t.ThrowMessage("java/lang/NegativeArraySizeException", fmt.Sprintf("%d", length))
	}
	arrClass, err := t.vm.LoadClass("[" + ref.Class.Name)
	if err != nil {
		return err
	}
	arr, err := t.vm.Arena.NewArray(arrClass.ID(), int(length))
	if err != nil {
		return err
	}
	f.Push(uint64(arr))
	return nil
}

func cmpInt64(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpFloat64 implements the fcmp/dcmp family; NaN maps to +1 for the g
// variant and -1 for the l variant.
func cmpFloat64(a, b float64, nanIsPositive bool) int32 {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		if nanIsPositive {
			return 1
		}
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// d2iSaturating matches Java's narrowing: NaN becomes 0, out-of-range
// values clamp to the int range.
func d2iSaturating(d float64) int32 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt32:
		return math.MaxInt32
	case d <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(d)
	}
}

func d2lSaturating(d float64) int64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(d)
	}
}
