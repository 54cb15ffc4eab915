package entity

import "time"

// ResultCode код результата анализа, передаваемый в ПЛК.
type ResultCode int16

const (
	ResultNone ResultCode = 0 // нет решения
	ResultPass ResultCode = 1 // годное изделие
	ResultFail ResultCode = 2 // брак
)

func (r ResultCode) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultPass:
		return "pass"
	case ResultFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ErrorCode код ошибки ПК, передаваемый в ПЛК.
type ErrorCode uint16

const (
	ErrNone           ErrorCode = 0
	ErrNoFrame        ErrorCode = 10 // нет кадра с камеры
	ErrClassifyFailed ErrorCode = 20 // анализ кадра завершился ошибкой
)

// Inspection запись об обработке одного изделия.
type Inspection struct {
	At        time.Time
	FrameSeq  uint64 // 0, если кадра не было
	Result    ResultCode
	ErrorCode ErrorCode
	Duration  time.Duration
}

// InspectionTotals счётчики результатов с момента запуска.
type InspectionTotals struct {
	Total  int
	Passed int
	Failed int
	Errors int
}
