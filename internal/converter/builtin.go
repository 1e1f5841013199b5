package converter

// Hotels converts the hotel reviews dataset into "hotels" and "reviews".
func Hotels() Definition {
	return Definition{
		Name:   "hotels",
		Source: "datasets/Hotel_Reviews.csv",
		Parent: ParentSpec{
			Collection: "hotels",
			Key:        []string{"Hotel_Name", "Hotel_Address"},
			Fields: []FieldMapping{
				{Column: "Hotel_Name", Field: "name"},
				{Column: "Hotel_Address", Field: "address"},
				{Column: "Average_Score", Field: "average_score", Type: FieldFloat},
				{Column: "Total_Number_of_Reviews", Field: "total_number_of_reviews", Type: FieldInt},
				{Column: "lat", Field: "lat", Type: FieldFloat},
				{Column: "lng", Field: "lng", Type: FieldFloat},
			},
		},
		Child: ChildSpec{
			Collection: "reviews",
			Reference:  "hotel_id",
			IDColumns: []string{
				"Review_Date",
				"Positive_Review",
				"Negative_Review",
				"Review_Total_Positive_Word_Counts",
				"Review_Total_Negative_Word_Counts",
				"Reviewer_Score",
				"Tags",
				"days_since_review",
				"Reviewer_Nationality",
				"Total_Number_of_Reviews_Reviewer_Has_Given",
			},
			Fields: []FieldMapping{
				{Column: "Review_Date", Field: "review_date"},
				{Column: "Positive_Review", Field: "positive_review"},
				{Column: "Negative_Review", Field: "negative_review"},
				{Column: "Review_Total_Positive_Word_Counts", Field: "review_total_positive_word_counts", Type: FieldInt},
				{Column: "Review_Total_Negative_Word_Counts", Field: "review_total_negative_word_counts", Type: FieldInt},
				{Column: "Reviewer_Score", Field: "reviewer_score", Type: FieldFloat},
				{Column: "Tags", Field: "tags"},
				{Column: "days_since_review", Field: "days_since_review"},
			},
			Embed: &EmbedSpec{
				Field: "reviewer",
				Fields: []FieldMapping{
					{Column: "Reviewer_Nationality", Field: "nationality"},
					{Column: "Total_Number_of_Reviews_Reviewer_Has_Given", Field: "total_number_of_reviews_by_reviewer", Type: FieldInt},
				},
			},
		},
	}
}

// Bank converts the bank transactions dataset into "customers" and
// "transactions".
func Bank() Definition {
	return Definition{
		Name:   "bank",
		Source: "datasets/bank_transactions.csv",
		Parent: ParentSpec{
			Collection: "customers",
			Key:        []string{"CustomerID", "CustGender", "CustLocation"},
			Fields: []FieldMapping{
				{Column: "CustomerID", Field: "customer_code"},
				{Column: "CustGender", Field: "gender"},
				{Column: "CustLocation", Field: "location"},
				{Column: "CustAccountBalance", Field: "account_balance", Type: FieldFloat},
			},
		},
		Child: ChildSpec{
			Collection: "transactions",
			Reference:  "customer_id",
			IDColumns: []string{
				"TransactionID",
				"TransactionDate",
				"TransactionTime",
				"TransactionAmount (INR)",
			},
			Fields: []FieldMapping{
				{Column: "TransactionID", Field: "transaction_code"},
				{Column: "TransactionDate", Field: "transaction_date"},
				{Column: "TransactionTime", Field: "transaction_time", Type: FieldInt},
				{Column: "TransactionAmount (INR)", Field: "transaction_amount", Type: FieldFloat},
			},
			Embed: &EmbedSpec{
				Field: "customer",
				Fields: []FieldMapping{
					{Column: "CustGender", Field: "gender"},
					{Column: "CustLocation", Field: "location"},
					{Column: "CustAccountBalance", Field: "account_balance", Type: FieldFloat},
				},
			},
		},
	}
}
