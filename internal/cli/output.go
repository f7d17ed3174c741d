package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chepyr/tareas/internal/api"
	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/session"
	"github.com/chepyr/tareas/internal/tasklist"
)

var (
	errNotLoggedIn = errors.New(`not logged in, run "tareas login <email>"`)
	errExpired     = errors.New(api.MsgSessionExpired)
)

func errAlreadyLoggedIn(store session.Store) error {
	if user, ok := store.User(); ok {
		return fmt.Errorf(`already logged in as %s, run "tareas logout" first`, user.Email)
	}
	return errors.New(`already logged in, run "tareas logout" first`)
}

var fieldLabels = map[string]string{
	"correo":      "email",
	"titulo":      "title",
	"descripcion": "description",
	"estado":      "status",
}

// explain turns a command failure into what the user should read.
func (a *app) explain(err error) error {
	if err == nil {
		return nil
	}
	if a.expired {
		return errExpired
	}
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		lines := make([]string, len(verrs))
		for i, fe := range verrs {
			label := fieldLabels[fe.Field]
			if label == "" {
				label = fe.Field
			}
			lines[i] = fmt.Sprintf("  %s: %s", label, fe.Message)
		}
		return fmt.Errorf("invalid input:\n%s", strings.Join(lines, "\n"))
	}
	if errors.Is(err, tasklist.ErrInProgress) {
		return errors.New("another change to this task is still in progress")
	}
	return err
}

// status prints a transient confirmation line.
func (a *app) status(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
