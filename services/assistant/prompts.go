// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assistant exposes the generation router over HTTP for the club
// management site: club descriptions, event suggestions and the help
// assistant.
package assistant

import "strings"

// ClubDescriptionPrompt asks for a short description of a club.
func ClubDescriptionPrompt(clubName string) string {
	return "Kulup adi: " + strings.TrimSpace(clubName) + ". " +
		"2-3 cumlelik kisa ve net bir kulup aciklamasi yaz. " +
		"Sadece aciklama metnini ver."
}

// EventSuggestionPrompt asks for one event idea as a JSON object with title,
// description and location.
func EventSuggestionPrompt(clubName string) string {
	return "Bir universite kulubu icin etkinlik onerisi ver. " +
		"Kulup adi: " + strings.TrimSpace(clubName) + ". " +
		"Cevabi sadece JSON olarak ver: " +
		`{"title":"...","description":"...","location":"..."}.`
}

// AssistantPrompt wraps a visitor question with the site assistant's scope.
func AssistantPrompt(message string) string {
	return "Sen Kulup Yonetimi sitesinin yapay zeka asistanisin. " +
		"Kisa ve net cevap ver. " +
		"Sadece site ozellikleri, roller (Uye/Baskan/Admin), " +
		"kulup uyeligi, etkinlikler, gorevler ve aidatlar hakkinda bilgi ver. " +
		"Site disi sorulari nazikce reddet. " +
		"Soru: " + strings.TrimSpace(message)
}
