package convo

// Callback identifiers of the bulk confirmation buttons.
const (
	CallbackConfirm = "CONFIRM_SEND"
	CallbackCancel  = "CANCEL_SEND"
)

const (
	msgStartHint     = "اكتب /start للبدء ✅"
	msgInternalError = "⚠️ حدث خطأ أثناء المعالجة. حاول مرة أخرى."

	// guided
	msgWelcome     = "✅ أهلاً بك!\nسأجهّز الشحنة خطوة بخطوة.\n\nابدأ بكتابة *اسم المتجر*:"
	msgRestart     = "✅ ممتاز. اكتب *اسم المتجر*:"
	msgCancelled   = "تم الإلغاء ✅\nإذا تريد تبدأ من جديد اكتب /start"
	msgAskCustomer = "تمام.\nاكتب *اسم الزبون*:"
	msgAskPhone    = "اكتب *رقم هاتف الزبون* (يفضل يبدأ 07 وطوله 11 رقم):"
	msgBadPhone    = "⚠️ الرقم غير صحيح.\nاكتب رقم مثل: 07701234567"
	msgAskDistrict = "اكتب *المنطقة/الحي*:"
	msgAskAddress  = "اكتب *العنوان الكامل*:"
	msgAskAmount   = "اكتب *مبلغ الاستلام (IQD)* رقم فقط مثال: 25000"
	msgBadAmount   = "⚠️ المبلغ لازم يكون رقم فقط.\nمثال: 25000"
	msgAskNotes    = "اكتب *ملاحظات* (أو اكتب - إذا ماكو):"
	msgGuidedDone  = "✅ تم تجهيز الشحنة (JSON جاهز):"
	msgGuidedHint  = "إذا تريد تبدأ شحنة جديدة: /new\nإذا تريد إلغاء: /cancel"
	msgGuidedHelp  = "سأسألك عن بيانات الشحنة حقلاً حقلاً.\n/start أو /new للبدء من جديد\n/cancel للإلغاء"

	// collect
	msgCollectHelp   = "أرسل بيانات الشحنات كنص حر في رسالة أو أكثر.\nعند الانتهاء اكتب /done (أو: تم)\nللإلغاء اكتب /cancel (أو: الغاء)"
	msgCollectIdle   = "\nستتم المعالجة تلقائياً بعد %s من آخر رسالة."
	msgCollected     = "📝 تم الحفظ (%d). أرسل المزيد أو اكتب /done"
	msgNothingToDo   = "⚠️ لا يوجد نص لمعالجته."
	msgCollectResult = "✅ تم استخراج %d شحنة:"
	msgBufferCleared = "تم مسح البيانات ✅"

	// bulk
	msgBulkHelp      = "أرسل الشحنات في رسالة واحدة، وافصل بين كل شحنة بسطر ---\nالكتلة الأولى يمكن أن تحتوي على بيانات مشتركة (المتجر، المحافظة).\n\nمثال:\nالمتجر: متجر النور\nالمحافظة: بغداد\n---\nاسم: علي\nهاتف: 07701234567\nمبلغ: 25000\nالمنطقة: الكرادة\nعنوان: شارع 52"
	msgEmptyInput    = "⚠️ الرسالة فارغة، لا توجد شحنات."
	msgPreviewHeader = "📦 شحنات صالحة: %d"
	msgPreviewMore   = "… و %d أخرى"
	msgPreviewErrors = "⚠️ أخطاء (%d):"
	msgPreviewAsk    = "هل تريد تأكيد الإرسال؟"
	msgNoValid       = "❌ لا توجد شحنات صالحة."
	msgNoPending     = "لا توجد شحنات معلقة"
	msgConfirmed     = "✅ تم تأكيد %d شحنة:"
	msgPendingGone   = "تم إلغاء الشحنات المعلقة ✅"
	msgRateLimited   = "⏳ أرسلت دفعات كثيرة. حاول بعد قليل."
	btnConfirm       = "✅ تأكيد الإرسال"
	btnCancel        = "❌ إلغاء"
)

const (
	previewRecords = 15
	previewErrors  = 8
)
