package handlers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"promoter-backend/internal/ctxkeys"
)

// appendEmployerScope adds an employer_id scope filter to a dynamic
// WHERE clause. colExpr is the SQL column expression to filter on
// (e.g. "p.employer_id"). If the user has global scope (admin/
// super_admin), nothing is added.
func appendEmployerScope(ctx context.Context, where string, args []interface{}, argIdx int, colExpr string) (string, []interface{}, int) {
	scope := ctxkeys.GetEmployerScope(ctx)
	if scope == nil {
		return where, args, argIdx
	}
	where += fmt.Sprintf(" AND %s = ANY($%d)", colExpr, argIdx)
	args = append(args, scope)
	argIdx++
	return where, args, argIdx
}

// checkEmployerAccess verifies that the given employerID is within the
// user's scope. A nil employerID (unassigned promoter) is only visible
// to global-scope users.
func checkEmployerAccess(ctx context.Context, employerID *string) bool {
	scope := ctxkeys.GetEmployerScope(ctx)
	if scope == nil {
		return true
	}
	if employerID == nil {
		return false
	}
	for _, id := range scope {
		if id == *employerID {
			return true
		}
	}
	return false
}

// checkPromoterAccess looks up the promoter's employer_id and checks scope.
func checkPromoterAccess(ctx context.Context, pool *pgxpool.Pool, promoterID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var employerID *string
	err := pool.QueryRow(ctx,
		"SELECT employer_id::text FROM promoters WHERE id = $1", promoterID,
	).Scan(&employerID)
	if err != nil {
		return false
	}
	return checkEmployerAccess(ctx, employerID)
}
