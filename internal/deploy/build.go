package deploy

import (
	"fmt"
	"os"
	"os/exec"
)

// RunBuildHook runs the component's build command in its source
// directory, streaming output to the terminal. Components without a
// build command are a no-op.
func RunBuildHook(c Component) error {
	if c.BuildCommand == "" {
		return nil
	}
	if c.SourceDir == "" {
		return fmt.Errorf("component %s has a build command but no source directory", c.ID)
	}

	fmt.Printf("==> Building %s\n", c.Name)

	cmd := exec.Command("sh", "-c", c.BuildCommand)
	cmd.Dir = c.SourceDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("COMPONENT_ID=%s", c.ID),
		fmt.Sprintf("COMPONENT_NAME=%s", c.Name),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build %s: %w", c.ID, err)
	}
	return nil
}
