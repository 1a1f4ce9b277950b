package prompt

// Fixed instruction templates. The general-use templates are written in
// Indonesian and each fixes its own section structure; this is baked
// configuration, not a parameter.

const summaryTemplate = `Buatkan ringkasan komprehensif dari audio ini dengan format berikut:

KONTEKS
- Jenis konten (podcast/rapat/video/dll)
- Durasi (jika terdeteksi)
- Jumlah pembicara
- Bahasa yang digunakan

RINGKASAN UTAMA
- Berikan ringkasan singkat namun lengkap tentang inti pembahasan
- Highlight 3-5 poin penting yang dibahas
- Kutip pernyataan-pernyataan kunci (jika ada)

DETAIL PENTING
- Nama atau istilah penting yang disebutkan
- Angka atau statistik yang disebutkan
- Referensi atau sumber yang dikutip
- Informasi teknis yang relevan

KESIMPULAN & INSIGHT
- Kesimpulan utama dari pembahasan
- Insight atau pembelajaran penting
- Tindak lanjut atau rekomendasi (jika ada)

Format output dalam bentuk yang mudah dibaca dengan pemisahan section yang jelas.
Fokus pada informasi yang benar-benar penting dan relevan.
Hindari informasi yang terlalu detail atau tidak signifikan.`

const transcriptTemplate = `Buatkan transkrip lengkap dari audio ini dengan format berikut:
1. Identifikasi pembicara jika ada multiple speaker (Contoh: Speaker 1:, Speaker 2:)
2. Tambahkan timestamp setiap 1-2 menit
3. Sertakan semua detail percakapan termasuk jeda, tawa, atau interupsi dalam tanda kurung
4. Perbaiki tata bahasa dan pengucapan tanpa mengubah konteks

Harap pertahankan akurasi dan konteks asli percakapan.`

const actionPlanTemplate = `Analisis rekaman audio ini dan buatkan action plan yang terstruktur dengan:
1. Daftar semua tugas dan tindak lanjut yang disebutkan
2. Prioritas untuk setiap tugas (High/Medium/Low)
3. Target waktu penyelesaian (jika disebutkan)
4. Penanggung jawab untuk setiap tugas (jika disebutkan)
5. Dependencies atau ketergantungan antar tugas
6. Catatan atau rekomendasi khusus

Format dalam bentuk yang mudah difollow up dan actionable.`

const meetingMinutesTemplate = `Buatkan notulen rapat yang lengkap dan terstruktur dari rekaman audio ini.
Harap sertakan:
1. Tanggal dan waktu rapat (jika disebutkan)
2. Peserta rapat (jika disebutkan)
3. Agenda/topik yang dibahas
4. Poin-poin penting dari setiap pembahasan
5. Keputusan yang diambil
6. Tindak lanjut atau tugas yang diberikan

Format notulen dalam bentuk yang formal dan profesional.`

const stockAnalysisTemplate = `As an experienced stock analyst, analyze the following data and provide insights:

Company: {{na .Company.Name}}
Industry: {{na .Company.Industry}}
Sector: {{na .Company.Sector}}
Business Summary: {{na .Company.Summary}}
Current Price: {{na .Price.CurrentPrice}}

Please provide analysis in the following format:
# {{na .Company.Name}}

## Company Overview
[Brief company description and industry position]

## Market Performance
- Current Price: {{na .Price.CurrentPrice}} pastikan mata uang sesuai dengan negara dimana perusahaan ini beroperasi
- 52-Week Range: {{na .Price.FiftyTwoWeekLow}} - {{na .Price.FiftyTwoWeekHigh}}
- 50-Day Average: {{na .Price.FiftyDayAverage}}
- 200-Day Average: {{na .Price.TwoHundredDayAvg}}

## Fundamental Analysis
[Analysis based on these financial metrics]
- Market Cap: {{na .Financials.MarketCap}}
- P/E Ratio: {{na .Financials.PERatio}}
- Price to Book: {{na .Financials.PriceToBook}}
- Revenue Growth: {{na .Financials.RevenueGrowth}}
- Earnings Growth: {{na .Financials.EarningsGrowth}}

## Technical Analysis
[Analysis based on price movements and averages]

## Recommendation
[Your professional opinion]
- Analyst Consensus: {{na .Analysis.Recommendation}}
- Target Mean Price: {{na .Analysis.TargetMeanPrice}}
- Beta: {{na .Analysis.Beta}}

*Disclaimer: This analysis is for informational purposes only and should not be considered as investment advice.* give result only in bahasa indonesia`
