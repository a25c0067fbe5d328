package render

import (
	"fmt"
	"strings"
)

// ToSQL serializes a RenderPlan into the store's SQL dialect: CTEs first in
// declaration order, then the outer SELECT/FROM/JOINs (pattern order)/
// WHERE (AND-joined)/GROUP BY/HAVING/ORDER BY/LIMIT/OFFSET. Every bound
// value renders as a positional `?` placeholder; params is the ordered
// list of parameter names a caller must bind against those placeholders,
// left to right as they appear in the returned text. Table and column
// identifiers are taken verbatim from the resolved catalog and are never
// escaped, since they never originate from query text itself.
func (rp *RenderPlan) ToSQL() (string, []string, error) {
	var b strings.Builder
	var params []string

	if len(rp.CTEs) > 0 {
		b.WriteString("WITH ")
		for i, cte := range rp.CTEs {
			if i > 0 {
				b.WriteString(", ")
			}
			bodySQL, bodyParams, err := cte.Body.ToSQL()
			if err != nil {
				return "", nil, err
			}
			b.WriteString(cte.Name)
			if len(cte.Columns) > 0 {
				b.WriteString(" (" + strings.Join(cte.Columns, ", ") + ")")
			}
			b.WriteString(" AS (" + bodySQL + ")")
			params = append(params, bodyParams...)
		}
		b.WriteString(" ")
	}

	b.WriteString("SELECT ")
	if rp.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(rp.Select) == 0 {
		b.WriteString("*")
	} else {
		items := make([]string, 0, len(rp.Select))
		for _, it := range rp.Select {
			sql, p, err := EmitExpr(it.Expr, rp.scope())
			if err != nil {
				return "", nil, err
			}
			params = append(params, p...)
			if it.Alias != "" {
				sql += " AS " + it.Alias
			}
			items = append(items, sql)
		}
		b.WriteString(strings.Join(items, ", "))
	}

	b.WriteString(" FROM " + fromSQL(rp.From))

	for _, j := range rp.Joins {
		kind := "JOIN"
		if j.Kind == JoinLeft {
			kind = "LEFT JOIN"
		}
		b.WriteString(" " + kind + " " + fromSQL(j.Source))
		if j.On != nil {
			onSQL, onParams, err := EmitExpr(j.On, rp.scope())
			if err != nil {
				return "", nil, err
			}
			b.WriteString(" ON " + onSQL)
			params = append(params, onParams...)
		}
	}

	whereParts := append([]string{}, rp.RawWhere...)
	for _, w := range rp.Where {
		sql, p, err := EmitExpr(w, rp.scope())
		if err != nil {
			return "", nil, err
		}
		whereParts = append(whereParts, sql)
		params = append(params, p...)
	}
	if len(whereParts) > 0 {
		b.WriteString(" WHERE " + strings.Join(whereParts, " AND "))
	}

	if len(rp.GroupBy) > 0 {
		groupItems := make([]string, 0, len(rp.GroupBy))
		for _, g := range rp.GroupBy {
			sql, p, err := EmitExpr(g, rp.scope())
			if err != nil {
				return "", nil, err
			}
			groupItems = append(groupItems, sql)
			params = append(params, p...)
		}
		b.WriteString(" GROUP BY " + strings.Join(groupItems, ", "))
	}

	if len(rp.Having) > 0 {
		havingParts := make([]string, 0, len(rp.Having))
		for _, h := range rp.Having {
			sql, p, err := EmitExpr(h, rp.scope())
			if err != nil {
				return "", nil, err
			}
			havingParts = append(havingParts, sql)
			params = append(params, p...)
		}
		b.WriteString(" HAVING " + strings.Join(havingParts, " AND "))
	}

	if len(rp.OrderBy) > 0 {
		orderItems := make([]string, 0, len(rp.OrderBy))
		for _, o := range rp.OrderBy {
			sql, p, err := EmitExpr(o.Expr, rp.scope())
			if err != nil {
				return "", nil, err
			}
			if o.Descending {
				sql += " DESC"
			}
			orderItems = append(orderItems, sql)
			params = append(params, p...)
		}
		b.WriteString(" ORDER BY " + strings.Join(orderItems, ", "))
	}

	if rp.Limit != nil {
		sql, p, err := EmitExpr(rp.Limit, rp.scope())
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" LIMIT " + sql)
		params = append(params, p...)
	}

	if rp.Offset != nil {
		sql, p, err := EmitExpr(rp.Offset, rp.scope())
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" OFFSET " + sql)
		params = append(params, p...)
	}

	return b.String(), params, nil
}

func fromSQL(src FromSource) string {
	if src.Alias == "" || src.Alias == src.Table {
		return src.Table
	}
	return fmt.Sprintf("%s AS %s", src.Table, src.Alias)
}

// ToSQL serializes a UnionPlan as its branches joined by UNION/UNION ALL,
// each parenthesized so an individual branch's own ORDER BY/LIMIT binds
// correctly.
func (u *UnionPlan) ToSQL() (string, []string, error) {
	keyword := "UNION"
	if u.All {
		keyword = "UNION ALL"
	}
	var parts []string
	var params []string
	for _, b := range u.Branches {
		sql, p, err := b.ToSQL()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, " "+keyword+" "), params, nil
}
