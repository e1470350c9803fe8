package committee

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Role identifies a committee member.
type Role string

const (
	RoleCompliance Role = "compliance"
	RoleCreditRisk Role = "credit_risk"
	RoleCollateral Role = "collateral"
)

// RoundKind identifies the purpose of a deliberation round.
type RoundKind string

const (
	RoundInitial    RoundKind = "initial"
	RoundDiscussion RoundKind = "discussion"
	RoundFinal      RoundKind = "final"
)

//go:embed roles.yaml
var rolesYAML []byte

// Member is one committee seat loaded from roles.yaml.
type Member struct {
	Role  Role   `yaml:"role"`
	Title string `yaml:"title"`
	Brief string `yaml:"brief"`
}

// RoundSpec describes one deliberation round.
type RoundSpec struct {
	Number      int       `yaml:"number"`
	Kind        RoundKind `yaml:"kind"`
	Title       string    `yaml:"title"`
	Instruction string    `yaml:"instruction"`
}

// Charter is the committee's fixed composition and procedure.
type Charter struct {
	MemberPreamble string      `yaml:"member_preamble"`
	OutputRule     string      `yaml:"output_rule"`
	Chair          string      `yaml:"chair"`
	Members        []Member    `yaml:"roles"`
	Rounds         []RoundSpec `yaml:"rounds"`
}

// SystemPrompt returns the system prompt for member m.
func (c *Charter) SystemPrompt(m Member) string {
	return c.MemberPreamble + " " + m.Brief + "\n" + c.OutputRule
}

// DefaultCharter parses the embedded roles.yaml.
func DefaultCharter() (*Charter, error) {
	return ParseCharter(rolesYAML)
}

// ParseCharter decodes and validates a charter document.
func ParseCharter(data []byte) (*Charter, error) {
	var c Charter
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "committee: parse charter")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Charter) validate() error {
	want := map[Role]bool{RoleCompliance: false, RoleCreditRisk: false, RoleCollateral: false}
	if len(c.Members) != len(want) {
		return eris.Errorf("committee: charter needs %d members, got %d", len(want), len(c.Members))
	}
	for _, m := range c.Members {
		seen, ok := want[m.Role]
		if !ok {
			return eris.Errorf("committee: unknown role %q", m.Role)
		}
		if seen {
			return eris.Errorf("committee: duplicate role %q", m.Role)
		}
		if m.Brief == "" {
			return eris.Errorf("committee: role %q has no brief", m.Role)
		}
		want[m.Role] = true
	}

	kinds := []RoundKind{RoundInitial, RoundDiscussion, RoundFinal}
	if len(c.Rounds) != len(kinds) {
		return eris.Errorf("committee: charter needs %d rounds, got %d", len(kinds), len(c.Rounds))
	}
	for i, r := range c.Rounds {
		if r.Kind != kinds[i] || r.Number != i+1 {
			return eris.Errorf("committee: round %d must be %s", i+1, kinds[i])
		}
	}
	if c.Chair == "" {
		return eris.New("committee: charter has no chair prompt")
	}
	return nil
}
