package summary

import (
	"fmt"
	"strings"
)

// Role says what a keyword rule decides about a column.
type Role string

const (
	RoleMonth   Role = "month"   // header names the accounting-month column
	RoleExclude Role = "exclude" // header names a dimension, never aggregated
	RoleInclude Role = "include" // header names a measure
)

// Rule tags a list of header substrings with a role and a category.
type Rule struct {
	Role     Role     `yaml:"role"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Policy is the ordered keyword lookup table used for column detection
// and classification. Rules are consulted in order; first match wins.
type Policy struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultPolicy returns the built-in keyword table.
func DefaultPolicy() Policy {
	return Policy{Rules: []Rule{
		{Role: RoleMonth, Category: "accounting_month", Keywords: []string{"会计月", "会计期间", "会计月份", "月份", "期间"}},

		{Role: RoleExclude, Category: "code", Keywords: []string{"编码", "编号", "代码"}},
		{Role: RoleExclude, Category: "id", Keywords: []string{"ID", "id", "Id"}},
		{Role: RoleExclude, Category: "serial", Keywords: []string{"序号"}},
		{Role: RoleExclude, Category: "party", Keywords: []string{"供应商", "客户", "企业", "厂家"}},
		{Role: RoleExclude, Category: "product", Keywords: []string{"单品", "物料", "产品", "商品", "品名"}},
		{Role: RoleExclude, Category: "name", Keywords: []string{"名称"}},
		{Role: RoleExclude, Category: "sizing", Keywords: []string{"规格"}},
		{Role: RoleExclude, Category: "unit", Keywords: []string{"单位"}},

		{Role: RoleInclude, Category: "quantity", Keywords: []string{"数量", "数", "量"}},
		{Role: RoleInclude, Category: "amount", Keywords: []string{"金额", "额", "价"}},
		{Role: RoleInclude, Category: "rate", Keywords: []string{"率"}},
		{Role: RoleInclude, Category: "balance", Keywords: []string{"期初", "期末"}},
		{Role: RoleInclude, Category: "movement", Keywords: []string{"入库", "出库", "退货", "发货"}},
		{Role: RoleInclude, Category: "pnl", Keywords: []string{"成本", "利润", "收入", "支出"}},
		{Role: RoleInclude, Category: "total", Keywords: []string{"合计", "总"}},
	}}
}

// Matches returns the first rule of the given role whose keyword occurs in header.
func (p Policy) Matches(role Role, header string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Role != role {
			continue
		}
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(header, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Keywords returns every keyword registered for role, in table order.
func (p Policy) Keywords(role Role) []string {
	var out []string
	for _, r := range p.Rules {
		if r.Role == role {
			out = append(out, r.Keywords...)
		}
	}
	return out
}

// Validate checks that every rule has a known role and that the month
// and include roles are not empty.
func (p Policy) Validate() error {
	var problems []string
	for i, r := range p.Rules {
		switch r.Role {
		case RoleMonth, RoleExclude, RoleInclude:
		default:
			problems = append(problems, fmt.Sprintf("rule %d: unknown role %q", i, r.Role))
		}
		if len(r.Keywords) == 0 {
			problems = append(problems, fmt.Sprintf("rule %d (%s/%s): no keywords", i, r.Role, r.Category))
		}
	}
	if len(p.Keywords(RoleMonth)) == 0 {
		problems = append(problems, "no month keywords")
	}
	if len(p.Keywords(RoleInclude)) == 0 {
		problems = append(problems, "no include keywords")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid policy:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
