package service

type Service struct {
	NotificatorService NotificatorServiceInterface
}

func New(d Deps) *Service {
	return &Service{NotificatorService: NewNotificatorService(d)}
}
