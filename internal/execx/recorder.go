package execx

import "sync"

// Recorder is a Runner that records commands without spawning processes.
// Hook, when set, is called for every command and its error is returned;
// tests use it to fake tool side effects such as writing an output file.
type Recorder struct {
	Hook    func(cmd Command) error
	Outputs map[string][]byte // keyed by Command.Name

	mu   sync.Mutex
	cmds []Command
}

var _ Runner = (*Recorder)(nil)

func (r *Recorder) Run(cmd Command) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()
	if r.Hook != nil {
		return r.Hook(cmd)
	}
	return nil
}

func (r *Recorder) Output(cmd Command) ([]byte, error) {
	if err := r.Run(cmd); err != nil {
		return nil, err
	}
	return r.Outputs[cmd.Name], nil
}

// Commands returns a copy of the recorded commands in call order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Named returns the recorded commands whose Name is name.
func (r *Recorder) Named(name string) []Command {
	var out []Command
	for _, c := range r.Commands() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
