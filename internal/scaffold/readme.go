package scaffold

import "strings"

const (
	// ReadmeFile is the generated readme, written before plan entries.
	ReadmeFile = "README.md"
	// RequirementsFile is the Python dependency manifest.
	RequirementsFile = "requirements.txt"
)

// setupRecipe is the setup guidance for a group of technologies.
type setupRecipe struct {
	triggers []string
	// readme is the fenced block placed under "## Setup".
	readme string
	// steps are the shell commands suggested after a build.
	steps []string
}

var setupRecipes = []setupRecipe{
	{
		triggers: []string{"python"},
		readme: "```bash\n" +
			"# Create virtual environment\n" +
			"python -m venv venv\n" +
			"source venv/bin/activate  # On Windows: venv\\Scripts\\activate\n" +
			"\n" +
			"# Install dependencies\n" +
			"pip install -r requirements.txt\n" +
			"```\n",
		steps: []string{
			"python -m venv venv",
			`source venv/bin/activate  # On Windows: venv\Scripts\activate`,
			"pip install -r requirements.txt",
		},
	},
	{
		triggers: []string{"node", "javascript"},
		readme: "```bash\n" +
			"# Install dependencies\n" +
			"npm install\n" +
			"```\n",
		steps: []string{"npm install"},
	},
}

func matchingRecipes(technologies []string) []setupRecipe {
	var out []setupRecipe
	for _, r := range setupRecipes {
		for _, trig := range r.triggers {
			if containsFold(technologies, trig) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// RenderReadme produces README.md for a plan.
func RenderReadme(p *Plan) string {
	var b strings.Builder
	b.WriteString("# " + p.Name + "\n\n")
	b.WriteString(p.Description + "\n\n")
	b.WriteString("## Technologies\n\n")
	for _, t := range p.Technologies {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\n## Setup\n\n")
	for i, r := range matchingRecipes(p.Technologies) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.readme)
	}
	return b.String()
}

// RenderRequirements produces requirements.txt, one dependency per line in plan order.
func RenderRequirements(deps []string) string {
	var b strings.Builder
	for _, d := range deps {
		b.WriteString(d + "\n")
	}
	return b.String()
}

// NextSteps returns the shell commands to suggest after building a project
// with the given technologies, starting with cd into root.
func NextSteps(root string, technologies []string) []string {
	steps := []string{"cd " + root}
	for _, r := range matchingRecipes(technologies) {
		steps = append(steps, r.steps...)
	}
	return steps
}
