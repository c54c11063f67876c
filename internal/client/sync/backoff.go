package sync

import "time"

// DefaultMaxAttempts - количество попыток до dead-letter для временных сбоев
const DefaultMaxAttempts = 6

// BackoffPolicy задает расписание повторов для временных сбоев.
// Расписание персистентно: вычисленный NextAttemptAt сохраняется
// в элементе очереди и переживает рестарт процесса, это не таймер в памяти.
type BackoffPolicy struct {
	Delays      []time.Duration
	MaxAttempts int
}

// DefaultBackoffPolicy returns the standard retry ladder
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delays: []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			30 * time.Second,
			60 * time.Second,
		},
	}
}

// Delay returns the wait before the given attempt (1-based retry count).
// За пределами лестницы действует последняя задержка.
func (p BackoffPolicy) Delay(retryCount int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[retryCount-1]
}

// NextAttempt computes the persisted next attempt time
func (p BackoffPolicy) NextAttempt(now time.Time, retryCount int) time.Time {
	return now.Add(p.Delay(retryCount))
}

// Exhausted reports whether the retry budget is spent.
// Бюджет - MaxAttempts запланированных повторов: повтор с номером внутри
// бюджета планируется (последний по верхней ступени лестницы), следующий
// сбой уводит элемент в dead-letter.
func (p BackoffPolicy) Exhausted(retryCount int) bool {
	return retryCount > p.MaxAttempts
}
