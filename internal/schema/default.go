package schema

// Default returns the built-in field table for the default categories.
func Default() *Schema {
	return New(map[string][]Field{
		"Facture": {
			{Name: "Numéro de facture", Aliases: []string{"Facture N°", "N° facture", "Invoice Number"}},
			{Name: "Date", Aliases: []string{"Date de facture", "Date facture"}},
			{Name: "Client", Aliases: []string{"Destinataire", "Facturé à"}},
			{Name: "Montant HT", Aliases: []string{"Total HT"}},
			{Name: "TVA", Aliases: []string{"Montant TVA"}},
			{Name: "Montant TTC", Aliases: []string{"Total TTC", "Net à payer", "Total"}},
		},
		"CV": {
			{Name: "Nom"},
			{Name: "Prénom"},
			{Name: "Email", Aliases: []string{"E-mail", "Courriel", "Mail"}},
			{Name: "Téléphone", Aliases: []string{"Tél", "Tel", "Mobile"}},
			{Name: "Adresse"},
			{Name: "Poste", Aliases: []string{"Titre", "Intitulé"}},
		},
		"Article": {
			{Name: "Titre"},
			{Name: "Auteur", Aliases: []string{"Auteurs", "Par"}},
			{Name: "Date de publication", Aliases: []string{"Publié le", "Date"}},
			{Name: "Source", Aliases: []string{"Journal", "Revue"}},
		},
		"Contrat": {
			{Name: "Objet"},
			{Name: "Parties", Aliases: []string{"Entre"}},
			{Name: "Date de signature", Aliases: []string{"Fait le", "Date"}},
			{Name: "Durée"},
			{Name: "Montant", Aliases: []string{"Prix", "Rémunération"}},
		},
		"Proposition Commerciale": {
			{Name: "Client"},
			{Name: "Objet"},
			{Name: "Montant", Aliases: []string{"Total", "Prix"}},
			{Name: "Validité", Aliases: []string{"Valable jusqu'au"}},
			{Name: "Date"},
		},
		"Rapport": {
			{Name: "Titre"},
			{Name: "Auteur", Aliases: []string{"Rédigé par"}},
			{Name: "Date"},
			{Name: "Objet", Aliases: []string{"Sujet"}},
		},
		"Correspondance": {
			{Name: "Expéditeur", Aliases: []string{"De"}},
			{Name: "Destinataire", Aliases: []string{"À"}},
			{Name: "Date"},
			{Name: "Objet"},
		},
		"Autre": {},
	})
}
