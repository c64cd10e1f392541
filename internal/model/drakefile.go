package model

// DeclarationType is the type of a task declaration in a Drakefile.
type DeclarationType string

const (
	DeclarationTypeTask      DeclarationType = "task"
	DeclarationTypeFile      DeclarationType = "file"
	DeclarationTypeDirectory DeclarationType = "directory"
)

// Drakefile is a set of task declarations.
type Drakefile struct {
	// Default is the target invoked when none is requested.
	Default string
	// Env is added to the environment of every command.
	Env   map[string]string
	Tasks []TaskDeclaration
}

// TaskDeclaration declares a task, declarations of the same name accumulate.
type TaskDeclaration struct {
	Type          DeclarationType
	Name          string
	Description   string
	Prerequisites []string
	// Commands are shell commands executed in order as the task actions.
	Commands []string
}
