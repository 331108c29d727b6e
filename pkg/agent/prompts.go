package agent

import "fmt"

// SystemPrompt frames every completion call in the run.
const SystemPrompt = `You are SudoDev, a senior software engineer.
You are running inside a Linux environment with the repository checked out at /testbed.

YOUR PROCESS:
1. You will be given a GitHub Issue.
2. You must first create a reproduction script named ` + "`reproduce_issue.py`" + ` that fails when the bug is present.
3. You will then modify the source code to fix the bug by providing the COMPLETE fixed file content.
`

// buildReproducePrompt asks for a standalone script that fails while the bug
// is present.
func buildReproducePrompt(issueDesc, hints string) string {
	return fmt.Sprintf(`A bug has been reported in this repository.

GitHub Issue:
%s

%s

Write a standalone Python script named reproduce_issue.py that demonstrates the bug.

Requirements:
- The script must FAIL (raise an exception or exit non-zero) while the bug is present.
- The script must pass cleanly once the bug is fixed.
- Use only the repository code and the standard library.
- Print a short description of what is being checked before the check runs.

Return the complete script in a `+"```python"+` block.`, issueDesc, hints)
}

// buildLocatePrompt asks for the source files that must change.
func buildLocatePrompt(issueDesc, repoStructure string) string {
	return fmt.Sprintf(`A bug has been reported in this repository.

GitHub Issue:
%s

Repository structure:
%s

Which source files most likely need to change to fix this bug?

List at most 3 repository-relative file paths, most likely first, one per line.
Do not list test files or the reproduction script.`, issueDesc, repoStructure)
}

// buildFixPrompt asks for a complete replacement of one file.
func buildFixPrompt(issueDesc, fileContent, filePath, errorTrace string) string {
	return fmt.Sprintf(`A bug has been reported in this repository.

GitHub Issue:
%s

The bug was reproduced; the reproduction script produced this output:
`+"```\n%s\n```"+`

File to fix: %s

Current content:
`+"```python\n%s\n```"+`

Fix the bug by rewriting this file.

**IMPORTANT:**
- Provide the ENTIRE file content, not a fragment or a diff.
- Change only what the fix requires.
- Ensure the result is syntactically valid Python.

Return the complete fixed file in a `+"```python"+` block.`, issueDesc, errorTrace, filePath, fileContent)
}
