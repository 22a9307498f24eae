// Package analytics сворачивает выборки заказов и покупателей в данные для графиков панели администратора.
//
// Все функции детерминированы: окно агрегации передаётся явно,
// системные часы внутри пакета не читаются.
package analytics

import (
	"time"
)

// Window описывает интервал из Days календарных суток, последние из которых содержат End.
type Window struct {
	End      time.Time
	Days     int
	Location *time.Location
}

// NewWindow создаёт окно из days суток, заканчивающееся днём момента now в часовом поясе loc.
func NewWindow(now time.Time, days int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	if days < 1 {
		days = 1
	}
	return Window{End: now, Days: days, Location: loc}
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// days возвращает длину окна; окно короче суток считается суточным.
func (w Window) days() int {
	if w.Days < 1 {
		return 1
	}
	return w.Days
}

// civilDay возвращает календарные сутки момента t в поясе loc как полночь UTC.
// Арифметика над такими значениями не зависит от переходов на летнее время.
func civilDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// midnight возвращает первый момент календарных суток day в поясе loc.
func midnight(day time.Time, loc *time.Location) time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	// полночь может попасть на перевод часов, тогда сутки начинаются позже
	for civilDay(t, loc).Before(day) {
		t = t.Add(time.Minute)
	}
	return t
}

// day возвращает i-е календарные сутки окна, считая с нуля.
func (w Window) day(i int) time.Time {
	last := civilDay(w.End, w.loc())
	return last.AddDate(0, 0, i-(w.days()-1))
}

// Start возвращает начало первых суток окна.
func (w Window) Start() time.Time {
	return midnight(w.day(0), w.loc())
}

// Until возвращает начало суток, следующих за окном (не включительно).
func (w Window) Until() time.Time {
	return midnight(w.day(w.days()), w.loc())
}

// Contains сообщает, попадает ли момент t в окно.
func (w Window) Contains(t time.Time) bool {
	return w.dayIndex(t) >= 0
}

// Previous возвращает окно той же длины, непосредственно предшествующее текущему.
func (w Window) Previous() Window {
	prev := w.day(-1)
	return Window{
		End:      time.Date(prev.Year(), prev.Month(), prev.Day(), 12, 0, 0, 0, w.loc()),
		Days:     w.days(),
		Location: w.loc(),
	}
}

// dayIndex возвращает номер суток окна для момента t или -1.
func (w Window) dayIndex(t time.Time) int {
	idx := int(civilDay(t, w.loc()).Sub(w.day(0)) / (24 * time.Hour))
	if idx < 0 || idx >= w.days() {
		return -1
	}
	return idx
}
