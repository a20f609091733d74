/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/importer"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	importDir      string
	importMediaDir string
)

// importCmd loads fixture data into the database.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import ingredients, users and recipes from JSON fixtures",
	Long: `Reads ingredients.json, users.json and recipes.json from --dir and inserts
whatever is not already present. Image paths in the fixtures are resolved
against --media (default <dir>/media) and uploaded to the configured storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		objects, err := storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		report, err := importer.New(importer.Deps{
			Ingredients: store.NewIngredientRepository(dbConn),
			Users:       store.NewUserRepository(dbConn),
			Recipes:     store.NewRecipeRepository(dbConn),
			Images:      images.NewStore(objects),
		}).Run(ctx, importDir, importMediaDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ingredients: %d created, %d skipped\n", report.IngredientsCreated, report.IngredientsSkipped)
		fmt.Fprintf(cmd.OutOrStdout(), "users: %d created, %d skipped\n", report.UsersCreated, report.UsersSkipped)
		fmt.Fprintf(cmd.OutOrStdout(), "recipes: %d created, %d skipped\n", report.RecipesCreated, report.RecipesSkipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDir, "dir", "./data", "directory containing the JSON fixtures")
	importCmd.Flags().StringVar(&importMediaDir, "media", "", "directory containing fixture images (default <dir>/media)")
}
