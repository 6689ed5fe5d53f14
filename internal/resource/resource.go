package resource

import (
	"fmt"
	"strings"
)

// Kind enumerates the classes of machine state relayprov manages.
type Kind string

const (
	KindPackage      Kind = "package"
	KindFileLine     Kind = "file-line"
	KindFileContent  Kind = "file-content"
	KindServiceUnit  Kind = "service-unit"
	KindServiceState Kind = "service-state"
	KindDirectory    Kind = "directory"
	KindRepository   Kind = "repository"
	KindCommand      Kind = "command"
)

var validKinds = []Kind{
	KindPackage,
	KindFileLine,
	KindFileContent,
	KindServiceUnit,
	KindServiceState,
	KindDirectory,
	KindRepository,
	KindCommand,
}

// ID is the stable identity of a resource. Two IDs are the same resource
// exactly when they compare equal, so IDs can be used as map keys.
type ID struct {
	Kind Kind
	Key  string
}

// String renders the identity as kind:key.
func (id ID) String() string {
	return string(id.Kind) + ":" + id.Key
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool {
	return id.Kind == "" && id.Key == ""
}

// Validate ensures the identity names a known kind and a non-empty key.
func (id ID) Validate() error {
	if !IsValidKind(id.Kind) {
		return fmt.Errorf("unknown resource kind %q", id.Kind)
	}
	if strings.TrimSpace(id.Key) == "" {
		return fmt.Errorf("resource %s requires a key", id.Kind)
	}
	return nil
}

// IsValidKind reports whether k is a supported kind.
func IsValidKind(k Kind) bool {
	for _, candidate := range validKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func Package(name string) ID { return ID{Kind: KindPackage, Key: name} }

// FileLine identifies one exact line inside a file.
func FileLine(path, line string) ID {
	return ID{Kind: KindFileLine, Key: path + "#" + line}
}

func FileContent(path string) ID { return ID{Kind: KindFileContent, Key: path} }

func ServiceUnit(path string) ID { return ID{Kind: KindServiceUnit, Key: path} }

func ServiceState(unit string) ID { return ID{Kind: KindServiceState, Key: unit} }

func Directory(path string) ID { return ID{Kind: KindDirectory, Key: path} }

func Repository(path string) ID { return ID{Kind: KindRepository, Key: path} }

// Command identifies an external command by the guard that proves it ran.
func Command(guard string) ID { return ID{Kind: KindCommand, Key: guard} }
