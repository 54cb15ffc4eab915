package entity

import "time"

// Frame кадр с камеры в формате BGR (8 бит на канал).
type Frame struct {
	Seq        uint64    // порядковый номер, присваивается буфером кадров
	CapturedAt time.Time // момент захвата
	Width      int       // ширина в пикселях
	Height     int       // высота в пикселях
	Pixels     []byte    // сырые пиксели BGR, построчно
	Preview    []byte    // JPEG для веба и бота (может быть пустым)
}

// Clone возвращает независимую копию кадра.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	if f.Pixels != nil {
		c.Pixels = append([]byte(nil), f.Pixels...)
	}
	if f.Preview != nil {
		c.Preview = append([]byte(nil), f.Preview...)
	}
	return &c
}

// Empty сообщает, что в кадре нет пикселей.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pixels) == 0
}
