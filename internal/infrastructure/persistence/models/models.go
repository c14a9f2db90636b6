// Package models contains the GORM persistence models. These are the
// declarative entity mappings of the application; cross-entity invariants
// (dense course numbering, quota caps) are enforced procedurally by the
// repositories and services, not by schema constraints.
package models

// All returns every entity model for schema auto-migration, ordered so that
// referenced tables migrate before referencing ones.
func All() []interface{} {
	return []interface{}{
		&DocumentModel{},
		&PersonModel{},
		&PersonPhone{},
		&AccessPlanModel{},
		&AccessCounterModel{},
		&VictualModel{},
		&DishModel{},
		&RecipeModel{},
		&IngredientModel{},
		&MealTypeModel{},
	}
}
