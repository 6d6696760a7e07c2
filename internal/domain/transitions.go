package domain

// Actor кто инициирует переход статуса
type Actor string

const (
	ActorStudent Actor = "student"
	ActorTeacher Actor = "teacher"
	ActorSystem  Actor = "system"
)

// transitionRule кто может выполнить переход и проверяется ли окно отмены
type transitionRule struct {
	actors       map[Actor]windowPolicy
	ownerOnly    bool // студент может действовать только над своим бронированием
	notification NotificationKind
}

type windowPolicy bool

const (
	windowFree    windowPolicy = false
	windowChecked windowPolicy = true
)

// transitions единая таблица переходов бронирования
var transitions = map[BookingStatus]map[BookingStatus]transitionRule{
	StatusPending: {
		StatusConfirmed: {
			actors:       map[Actor]windowPolicy{ActorTeacher: windowFree},
			notification: NotificationBookingConfirmed,
		},
		StatusCancelled: {
			actors:       map[Actor]windowPolicy{ActorTeacher: windowFree, ActorStudent: windowChecked},
			ownerOnly:    true,
			notification: NotificationBookingCancelled,
		},
	},
	StatusConfirmed: {
		StatusCancelled: {
			actors:       map[Actor]windowPolicy{ActorTeacher: windowChecked, ActorStudent: windowChecked},
			ownerOnly:    true,
			notification: NotificationBookingCancelled,
		},
		StatusCompleted: {
			actors: map[Actor]windowPolicy{ActorSystem: windowFree},
		},
	},
	StatusCompleted: {
		StatusCancelled: {
			actors:       map[Actor]windowPolicy{ActorTeacher: windowFree},
			notification: NotificationBookingCancelled,
		},
	},
	StatusCancelled: {},
}

// CanTransitionTo есть ли переход в таблице (без учета инициатора)
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	_, ok := transitions[s][target]
	return ok
}

// IsTerminal из статуса нет переходов
func (s BookingStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Transition разрешенный переход
type Transition struct {
	From BookingStatus
	To   BookingStatus

	// RequiresWindowCheck нужно ли проверять окно отмены перед применением
	RequiresWindowCheck bool

	// Notification о чем уведомить другую сторону (пусто - не уведомлять)
	Notification NotificationKind
}

// AuthorizeTransition проверяет переход по таблице и права инициатора
// ErrInvalidTransition - перехода нет в таблице, ErrForbidden - инициатору он не разрешен
func AuthorizeTransition(from, to BookingStatus, actor Actor, isOwner bool) (Transition, error) {
	rule, ok := transitions[from][to]
	if !ok {
		return Transition{}, ErrInvalidTransition
	}

	policy, ok := rule.actors[actor]
	if !ok {
		return Transition{}, ErrForbidden
	}
	if actor == ActorStudent && rule.ownerOnly && !isOwner {
		return Transition{}, ErrForbidden
	}

	return Transition{
		From:                from,
		To:                  to,
		RequiresWindowCheck: bool(policy),
		Notification:        rule.notification,
	}, nil
}
