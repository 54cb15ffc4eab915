package entity

import "fmt"

// VarName символьное имя переменной обмена с ПЛК.
type VarName string

const (
	VarReady     VarName = "ready"      // ПЛК готов (чтение)
	VarNewPart   VarName = "new-part"   // новое изделие под камерой (чтение)
	VarStartGrab VarName = "start-grab" // идёт обработка (запись)
	VarResult    VarName = "result"     // код результата (запись)
	VarErrorCode VarName = "error-code" // код ошибки ПК (запись)
)

// VarType тип значения переменной на стороне ПЛК.
type VarType int

const (
	TypeBoolean VarType = iota + 1
	TypeInt16
	TypeUInt16
)

func (t VarType) String() string {
	switch t {
	case TypeBoolean:
		return "Boolean"
	case TypeInt16:
		return "Int16"
	case TypeUInt16:
		return "UInt16"
	default:
		return fmt.Sprintf("VarType(%d)", int(t))
	}
}

// Convert приводит значение к Go-типу, соответствующему типу переменной.
func (t VarType) Convert(v any) (any, error) {
	switch t {
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("value %v (%T) is not a boolean", v, v)
	case TypeInt16:
		n, ok := toInt64(v)
		if !ok || n < -32768 || n > 32767 {
			return nil, fmt.Errorf("value %v (%T) does not fit Int16", v, v)
		}
		return int16(n), nil
	case TypeUInt16:
		n, ok := toInt64(v)
		if !ok || n < 0 || n > 65535 {
			return nil, fmt.Errorf("value %v (%T) does not fit UInt16", v, v)
		}
		return uint16(n), nil
	default:
		return nil, fmt.Errorf("unknown variable type %s", t)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case ResultCode:
		return int64(n), true
	case ErrorCode:
		return int64(n), true
	default:
		return 0, false
	}
}

// Binding связывает символьное имя с адресом переменной на устройстве.
type Binding struct {
	Name    VarName
	Locator string  // адрес узла, например ns=4;s=|var|...bPlcReady
	Type    VarType
	Default any     // значение при отсутствии связи
}

// DefaultBindings возвращает привязки пяти переменных обмена для заданного префикса узлов.
func DefaultBindings(prefix string) []Binding {
	return []Binding{
		{Name: VarReady, Locator: prefix + "bPlcReady", Type: TypeBoolean, Default: false},
		{Name: VarNewPart, Locator: prefix + "bNewProduct", Type: TypeBoolean, Default: false},
		{Name: VarStartGrab, Locator: prefix + "bStartGrab", Type: TypeBoolean, Default: false},
		{Name: VarResult, Locator: prefix + "iPcResult", Type: TypeInt16, Default: int16(0)},
		{Name: VarErrorCode, Locator: prefix + "uiPcErrorCode", Type: TypeUInt16, Default: uint16(0)},
	}
}
