package notify

import (
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Target is a fully resolved notification target ready to send.
type Target struct {
	ServiceName string
	URL         string
	Message     string
	Params      map[string]string
}

// ServiceDef is a notification service from the config.
type ServiceDef struct {
	URL    string
	Params map[string]string
}

// ResolveTargets renders the transition message for every configured service.
func ResolveTargets(serviceNames []string, services map[string]ServiceDef, tmplStr string, data TemplateData) ([]Target, error) {
	var targets []Target
	for _, name := range serviceNames {
		svc, ok := services[name]
		if !ok {
			return nil, fmt.Errorf("unknown service %q", name)
		}

		msg, err := Render(tmplStr, data)
		if err != nil {
			return nil, fmt.Errorf("rendering template for %s: %w", name, err)
		}

		targets = append(targets, Target{
			ServiceName: name,
			URL:         svc.URL,
			Message:     msg,
			Params:      svc.Params,
		})
	}
	return targets, nil
}

// Validate checks that a target's URL parses without sending anything.
func Validate(t Target) error {
	if _, err := shoutrrr.CreateSender(t.URL); err != nil {
		return fmt.Errorf("invalid notification URL for %s: %w", t.ServiceName, err)
	}
	return nil
}

// Send delivers one notification.
func Send(t Target) error {
	sender, err := shoutrrr.CreateSender(t.URL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}

	params := types.Params(t.Params)
	for _, err := range sender.Send(t.Message, &params) {
		if err != nil {
			return fmt.Errorf("sending via %s: %w", t.ServiceName, err)
		}
	}
	return nil
}
